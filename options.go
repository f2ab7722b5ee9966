// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import "github.com/go-playground/validator/v10"

var optionsValidator = validator.New(validator.WithRequiredStructEnabled())

// ReHashFunc combines the previous attempt's hash with a fresh hash of
// key to produce the path tried on the next collision-retry attempt.
// On the first attempt prevHash is 0, so the default reduces to
// ctx.Hash(key).
type ReHashFunc[K any] func(ctx Context[K], key K, prevHash uint32) uint32

// Options configures a Map's collision-retry behaviour.
type Options[K any] struct {
	// MaxCollisions bounds the number of rehash attempts Put/GetOrPut/Get
	// will make before giving up on a colliding key.
	MaxCollisions uint8 `validate:"gte=1"`
	// ReHash combines a previous hash attempt with a fresh one. Nil is
	// not valid; use DefaultOptions or NewOptions to get XORReHash
	// filled in.
	ReHash ReHashFunc[K] `validate:"required"`
}

// XORReHash is the default ReHashFunc: prevHash XOR ctx.Hash(key).
func XORReHash[K any](ctx Context[K], key K, prevHash uint32) uint32 {
	return prevHash ^ ctx.Hash(key)
}

// MultiplyRotateReHash is a stronger mixer than the default XOR-combine,
// offered per spec.md §9's suggestion that implementations "consider
// stronger re-hash mixers" while keeping ReHash itself pluggable. It is
// never the default.
func MultiplyRotateReHash[K any](ctx Context[K], key K, prevHash uint32) uint32 {
	h := prevHash*0x9E3779B1 + ctx.Hash(key)
	return (h << 13) | (h >> 19)
}

// DefaultMaxCollisions is the max_collisions default from spec.md §4.2.
const DefaultMaxCollisions = 8

// DefaultOptions returns the spec's default options: max_collisions 8,
// XOR-combine rehashing.
func DefaultOptions[K any]() Options[K] {
	return Options[K]{
		MaxCollisions: DefaultMaxCollisions,
		ReHash:        XORReHash[K],
	}
}

// OptionFunc mutates an Options value; see NewOptions.
type OptionFunc[K any] func(*Options[K])

// WithMaxCollisions overrides MaxCollisions.
func WithMaxCollisions[K any](n uint8) OptionFunc[K] {
	return func(o *Options[K]) { o.MaxCollisions = n }
}

// WithReHash overrides ReHash.
func WithReHash[K any](fn ReHashFunc[K]) OptionFunc[K] {
	return func(o *Options[K]) { o.ReHash = fn }
}

// NewOptions builds an Options value starting from DefaultOptions,
// applies fns in order, and validates the result.
func NewOptions[K any](fns ...OptionFunc[K]) (Options[K], error) {
	opts := DefaultOptions[K]()
	for _, fn := range fns {
		fn(&opts)
	}
	if err := validateOptions(opts); err != nil {
		return Options[K]{}, err
	}
	return opts, nil
}

func validateOptions[K any](opts Options[K]) error {
	if err := optionsValidator.Struct(opts); err != nil {
		return ErrInvalidOptions{Err: err}
	}
	return nil
}
