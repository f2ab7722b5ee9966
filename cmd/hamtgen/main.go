// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Command hamtgen reads a YAML literal key/value table and writes a Go
// source file materialising it as a compile-time HAMT, the idiomatic
// Go substitute for a const-evaluated build.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/travisstaloch/hamt/hamtgen"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "hamtgen:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("hamtgen", flag.ContinueOnError)
	in := fs.String("in", "", "path to the YAML literal key/value table (required)")
	out := fs.String("out", "", "path to write the generated Go file (default: stdout)")
	pkg := fs.String("package", "main", "package clause for the generated file")
	fn := fs.String("func", "NewTable", "exported constructor function name")
	maxCollisions := fs.Uint("max-collisions", 0, "override hamt.DefaultMaxCollisions (0 = use default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}

	tbl, err := hamtgen.ParseTable(data)
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	cfg := hamtgen.Config{
		Package:       *pkg,
		FuncName:      *fn,
		MaxCollisions: uint8(*maxCollisions),
	}
	return hamtgen.Generate(w, tbl, cfg)
}
