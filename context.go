// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import (
	"bytes"
	"fmt"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// Context supplies the two operations the trie needs to be generic over
// a key type: a deterministic 32-bit hash, and an equivalence relation.
// bIndex is the index of b in the leaves table, offered to contexts
// that want to consult auxiliary state; the two ready-made contexts
// below ignore it.
type Context[K any] interface {
	Hash(key K) uint32
	Eql(a, b K, bIndex uint32) bool
}

// ByteContext is the ready-made context for []byte keys: byte-wise
// equality and a 32-bit hash derived from xxhash. Keys are borrowed —
// the Map stores the slice header handed to it, so callers must keep
// the backing array alive for the lifetime of the Map. Like
// StringContext, its hash is deterministic across processes, so a Map
// built with it can be safely materialised ahead of time (see hamtgen)
// and queried by a later, separate process.
type ByteContext struct{}

// Hash implements Context.
func (ByteContext) Hash(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}

// Eql implements Context.
func (ByteContext) Eql(a, b []byte, _ uint32) bool {
	return bytes.Equal(a, b)
}

// StringContext is the ready-made context for string keys: built-in
// string equality and a 32-bit hash derived from xxhash. Unlike
// AutoContext, StringContext's hash does not depend on a per-process
// seed, so the same key always hashes to the same value in any process
// — the property hamtgen's build-time materialisation depends on: the
// vectors it emits are only valid if whatever hashes a key at query
// time agrees with whatever hashed it at generation time.
type StringContext struct{}

// Hash implements Context.
func (StringContext) Hash(key string) uint32 {
	return uint32(xxhash.Sum64String(key))
}

// Eql implements Context.
func (StringContext) Eql(a, b string, _ uint32) bool {
	return a == b
}

// Mul31ByteHash32 is the dependency-free hash variant spec.md §6
// suggests as an alternative to a library hash: h = h*31 + c, the
// classic "multiply by 31" string hash seeded from zero. It is exposed
// so Options.ReHash or a custom Context can use it instead of xxhash
// when a pure-stdlib hash is preferred; none of the contexts in this
// file wire it in themselves.
func Mul31ByteHash32(key []byte) uint32 {
	var h uint32
	for _, c := range key {
		h = h*31 + uint32(c)
	}
	return h
}

// MulByteHash32 is the second dependency-free variant spec.md §6
// mentions: h = a*h + c; a *= 27183. Like Mul31ByteHash32, it is
// exposed for callers to plug into a custom Context or ReHashFunc but
// is not itself wired into any context here.
func MulByteHash32(key []byte) uint32 {
	var h uint32 = 0
	var a uint32 = 63689
	for _, c := range key {
		h = a*h + uint32(c)
		a *= 27183
	}
	return h
}

var mapHashSeed = maphash.MakeSeed()

// AutoContext derives hash and equality for the common comparable key
// types (string and the fixed-width integers) using hash/maphash, the
// way rogpeppe/generic/ctrie derives StringHash and BytesHash. It is
// the Go analogue of spec.md's "auto context". Hash panics for key
// types it does not recognise — callers with an exotic comparable key
// type should write a small Context instead.
//
// AutoContext's hash is seeded per-process (mapHashSeed is chosen once
// at package init via maphash.MakeSeed), so it is only consistent
// within a single run. Do not use it to build a Map in one process and
// query it in another — e.g. hamtgen's build-time materialisation,
// which uses StringContext instead for exactly this reason.
type AutoContext[K comparable] struct{}

// Hash implements Context.
func (AutoContext[K]) Hash(key K) uint32 {
	var h maphash.Hash
	h.SetSeed(mapHashSeed)
	switch k := any(key).(type) {
	case string:
		h.WriteString(k)
	case int:
		writeUint64(&h, uint64(k))
	case int32:
		writeUint64(&h, uint64(k))
	case int64:
		writeUint64(&h, uint64(k))
	case uint32:
		writeUint64(&h, uint64(k))
	case uint64:
		writeUint64(&h, k)
	default:
		panic(fmt.Errorf("hamt: AutoContext does not know how to hash %T", key))
	}
	sum := h.Sum64()
	return uint32(sum) ^ uint32(sum>>32)
}

// Eql implements Context using the key type's built-in equality.
func (AutoContext[K]) Eql(a, b K, _ uint32) bool {
	return a == b
}

func writeUint64(h *maphash.Hash, v uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}
