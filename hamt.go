// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package hamt implements a generic Hash Array Mapped Trie: a
// bitmap-indexed trie mapping keys to values, built either by ordinary
// runtime insertion or by materialising a literal key/value table ahead
// of time (see the hamtgen package). Both construction modes produce
// the identical four-vector representation this package's Get/Put walk,
// so a map built one way is indistinguishable at query time from one
// built the other way.
package hamt

import (
	"math/bits"

	"github.com/travisstaloch/hamt/ill"
)

const (
	chunkBits = 5
	chunkMask = uint32(1)<<chunkBits - 1
	// maxDepth is how many 5-bit chunks a 32-bit hash yields before
	// exhaustion: 32/5 = 6 remainder 2, so the 7th chunk only has the
	// 2 leftover bits.
	maxDepth = (32 + chunkBits - 1) / chunkBits

	leafBit = uint32(1) << 31
)

func isLeafID(id uint32) bool    { return id&leafBit != 0 }
func leafIndex(id uint32) uint32 { return id &^ leafBit }
func makeLeafID(i uint32) uint32 { return leafBit | i }

// Branch is an interior trie node: a presence bitmap over the 32
// possible children at this level, plus the ill id of the head of this
// branch's ordered child-id list. Invariant: popcount(Bits) equals the
// length of the chain anchored at First.
type Branch struct {
	Bits  uint32
	First uint32 // ill.Null when this branch has no children yet
}

// Leaf is a terminal trie node holding one key/value pair.
type Leaf[K, V any] struct {
	Key   K
	Value V
}

// Entry is one input row for Build: the "literal key/value table" of
// spec.md §1.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Map is a Hash Array Mapped Trie from K to V. The zero value is not
// usable; construct one with New or Build. A Map owns its storage
// exclusively — there is no structural sharing between separate Map
// instances.
type Map[K, V any] struct {
	branches []Branch
	nodes    []uint32
	leaves   []Leaf[K, V]
	children ill.List

	ctx  Context[K]
	opts Options[K]
}

// New creates an empty Map using ctx for hashing/equality and opts for
// collision-retry behaviour.
func New[K, V any](ctx Context[K], opts Options[K]) *Map[K, V] {
	m := &Map[K, V]{ctx: ctx, opts: opts}
	m.Reset()
	return m
}

// Reset truncates all four backing vectors back to the empty-map state,
// so the Map can be reused without a fresh allocation. This is the
// closest Go idiom to the spec's deinit: there is no manual
// deallocation to perform (the runtime garbage collector owns that),
// but Reset gives callers an explicit point at which to release the
// old storage's references.
func (m *Map[K, V]) Reset() {
	m.branches = []Branch{{Bits: 0, First: ill.Null}}
	m.nodes = []uint32{0} // nodes[0] is the root branch, index 0
	m.leaves = nil
	m.children = ill.List{}
}

// Build creates a Map and inserts every entry via Put, in order,
// pre-reserving capacity for len(entries) in the branch, node and leaf
// tables (the ILL arena is not pre-reserved). This is
// init/initContext from spec.md §4.2.
func Build[K, V any](ctx Context[K], opts Options[K], entries []Entry[K, V]) (*Map[K, V], error) {
	m := New[K, V](ctx, opts)
	m.branches = make([]Branch, 1, len(entries)+1)
	m.branches[0] = Branch{Bits: 0, First: ill.Null}
	m.nodes = make([]uint32, 1, len(entries)+1)
	m.nodes[0] = 0
	m.leaves = make([]Leaf[K, V], 0, len(entries))

	for _, e := range entries {
		if err := m.Put(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromParts reconstructs a Map directly from already-built storage
// vectors, without running any insertions. This is what generated
// compile-time tables call: hamtgen runs the ordinary Build path once,
// ahead of time, and emits its four resulting vectors as Go literals;
// the generated constructor (named by hamtgen.Config.FuncName) then
// calls FromParts to get back a
// Map that answers Get/GetIndex identically to the one hamtgen built.
// The caller must pass vectors that actually satisfy the invariants in
// §3 of the design — FromParts does not re-validate them.
func FromParts[K, V any](ctx Context[K], opts Options[K], branches []Branch, nodes []uint32, leaves []Leaf[K, V], illNodes []ill.Node) *Map[K, V] {
	return &Map[K, V]{
		branches: branches,
		nodes:    nodes,
		leaves:   leaves,
		children: ill.FromNodes(illNodes),
		ctx:      ctx,
		opts:     opts,
	}
}

// Len returns the number of distinct keys currently stored.
func (m *Map[K, V]) Len() int { return len(m.leaves) }

// Branches exposes the branch table directly, for callers that need to
// serialise a Map's storage (hamtgen emitting it as Go literals).
func (m *Map[K, V]) Branches() []Branch { return m.branches }

// Nodes exposes the node-id table directly; see Branches.
func (m *Map[K, V]) Nodes() []uint32 { return m.nodes }

// Leaves exposes the leaf table directly; see Branches.
func (m *Map[K, V]) Leaves() []Leaf[K, V] { return m.leaves }

// ChildrenNodes exposes the backing ILL arena's nodes directly; see
// Branches.
func (m *Map[K, V]) ChildrenNodes() []ill.Node { return m.children.Nodes() }

// Get returns the value stored for key, and whether it was found.
func (m *Map[K, V]) Get(key K) (V, bool) {
	idx, ok := m.GetIndex(key)
	if !ok {
		var zero V
		return zero, false
	}
	return m.leaves[idx].Value, true
}

// GetIndex returns the index of key in the leaves table, or false if
// absent. Indices stay valid for the Map's lifetime: Put/GetOrPut only
// append to the leaves table, and only Reset discards it.
func (m *Map[K, V]) GetIndex(key K) (uint32, bool) {
	var prevHash uint32
	for attempt := uint8(0); attempt < m.opts.MaxCollisions; attempt++ {
		h := m.opts.ReHash(m.ctx, key, prevHash)
		idx, found, collided := m.descendGet(key, h)
		if collided {
			prevHash = h
			continue
		}
		return idx, found
	}
	return 0, false
}

// descendGet walks from the root using h, returning the leaf index and
// found=true on an exact match, found=false with collided=false on a
// definite absence (no such path at all), or collided=true if a leaf
// was found along the path whose key compares unequal under Eql (the
// caller should rehash and retry).
func (m *Map[K, V]) descendGet(key K, h uint32) (idx uint32, found bool, collided bool) {
	nodeIdx := uint32(0)
	for depth := 0; depth < maxDepth; depth++ {
		id := m.nodes[nodeIdx]
		if isLeafID(id) {
			li := leafIndex(id)
			if m.ctx.Eql(key, m.leaves[li].Key, li) {
				return li, true, false
			}
			return 0, false, true
		}
		b := &m.branches[id]
		chunk := h & chunkMask
		h >>= chunkBits
		bit := uint32(1) << chunk
		if b.Bits&bit == 0 {
			return 0, false, false
		}
		ordinal := bits.OnesCount32(b.Bits & (bit - 1))
		child, ok := m.children.Nth(b.First, ordinal)
		if !ok {
			return 0, false, false
		}
		nodeIdx = child
	}
	// hash exhausted: nodeIdx must now be a leaf
	id := m.nodes[nodeIdx]
	if !isLeafID(id) {
		return 0, false, false
	}
	li := leafIndex(id)
	if m.ctx.Eql(key, m.leaves[li].Key, li) {
		return li, true, false
	}
	return 0, false, true
}

// Put inserts or overwrites the value for key. If key is already
// present its value is overwritten in place and the leaves table does
// not grow.
func (m *Map[K, V]) Put(key K, value V) error {
	res, err := m.GetOrPut(key)
	if err != nil {
		return err
	}
	res.Write(value)
	return nil
}

// GetOrPutResult reports whether GetOrPut found an existing entry, and
// lets the caller fill (or overwrite) the value slot.
type GetOrPutResult[V any] struct {
	FoundExisting bool
	leaf          *V
}

// Write stores v into the leaf slot this result refers to. The pointer
// is invalidated by any subsequent mutating call on the Map; callers
// should call Write before doing anything else with the Map.
func (r GetOrPutResult[V]) Write(v V) {
	*r.leaf = v
}

// GetOrPut returns the existing entry for key if present, or inserts a
// new one with an uninitialised value slot that the caller must then
// fill via the returned result's Write method.
func (m *Map[K, V]) GetOrPut(key K) (GetOrPutResult[V], error) {
	var prevHash uint32
	for attempt := uint8(0); attempt < m.opts.MaxCollisions; attempt++ {
		h := m.opts.ReHash(m.ctx, key, prevHash)
		res, collided, err := m.descendPut(key, h)
		if err != nil {
			return GetOrPutResult[V]{}, err
		}
		if collided {
			prevHash = h
			continue
		}
		return res, nil
	}
	return GetOrPutResult[V]{}, ErrTooManyCollisions{MaxCollisions: m.opts.MaxCollisions}
}

// descendPut mirrors descendGet, but extends the trie instead of
// failing on an absent path. collided mirrors descendGet's meaning.
func (m *Map[K, V]) descendPut(key K, h uint32) (res GetOrPutResult[V], collided bool, err error) {
	nodeIdx := uint32(0)
	for depth := 0; depth < maxDepth; depth++ {
		id := m.nodes[nodeIdx]
		if isLeafID(id) {
			li := leafIndex(id)
			if m.ctx.Eql(key, m.leaves[li].Key, li) {
				return GetOrPutResult[V]{FoundExisting: true, leaf: &m.leaves[li].Value}, false, nil
			}
			return GetOrPutResult[V]{}, true, nil
		}

		chunk := h & chunkMask
		hNext := h >> chunkBits
		bit := uint32(1) << chunk
		branchID := id
		presentBits := m.branches[branchID].Bits
		childFirst := m.branches[branchID].First
		ordinal := bits.OnesCount32(presentBits & (bit - 1))

		if presentBits&bit == 0 {
			// no child yet: create one, leaf if the hash is exhausted
			// after this chunk, otherwise an empty branch. allocBranchNode
			// may grow m.branches itself (reallocating it), so it must run
			// before we touch branches[branchID] again.
			var childNodeIdx uint32
			if hNext == 0 {
				childNodeIdx = m.allocLeafNode(key)
			} else {
				childNodeIdx = m.allocBranchNode()
			}
			_, newFirst, aerr := m.children.AppendAt(childFirst, ordinal, childNodeIdx)
			if aerr != nil {
				return GetOrPutResult[V]{}, false, aerr
			}
			m.branches[branchID].First = newFirst
			m.branches[branchID].Bits = presentBits | bit

			if isLeafID(m.nodes[childNodeIdx]) {
				li := leafIndex(m.nodes[childNodeIdx])
				return GetOrPutResult[V]{FoundExisting: false, leaf: &m.leaves[li].Value}, false, nil
			}
			nodeIdx = childNodeIdx
			h = hNext
			continue
		}

		childNodeIdx, ok := m.children.Nth(childFirst, ordinal)
		if !ok {
			return GetOrPutResult[V]{}, false, ErrInternalLeafOnPath{Depth: depth}
		}
		nodeIdx = childNodeIdx
		h = hNext
	}

	// hash fully exhausted and we are still descending: the slot at
	// nodeIdx must already be a leaf (created on a previous attempt's
	// last chunk) or this is an internal inconsistency.
	id := m.nodes[nodeIdx]
	if !isLeafID(id) {
		return GetOrPutResult[V]{}, false, ErrInternalLeafOnPath{Depth: maxDepth}
	}
	li := leafIndex(id)
	if m.ctx.Eql(key, m.leaves[li].Key, li) {
		return GetOrPutResult[V]{FoundExisting: true, leaf: &m.leaves[li].Value}, false, nil
	}
	return GetOrPutResult[V]{}, true, nil
}

// allocLeafNode appends a new leaf (key, zero-value) and a discriminated
// leaf node id, returning the new node's index in m.nodes.
func (m *Map[K, V]) allocLeafNode(key K) uint32 {
	leafIdx := uint32(len(m.leaves))
	m.leaves = append(m.leaves, Leaf[K, V]{Key: key})
	nodeIdx := uint32(len(m.nodes))
	m.nodes = append(m.nodes, makeLeafID(leafIdx))
	return nodeIdx
}

// allocBranchNode appends a new empty branch and a plain branch node
// id, returning the new node's index in m.nodes.
func (m *Map[K, V]) allocBranchNode() uint32 {
	branchIdx := uint32(len(m.branches))
	m.branches = append(m.branches, Branch{Bits: 0, First: ill.Null})
	nodeIdx := uint32(len(m.nodes))
	m.nodes = append(m.nodes, branchIdx)
	return nodeIdx
}

// All calls fn for every stored key/value pair, in ascending leaf-table
// order. Iteration stops early if fn returns false.
func (m *Map[K, V]) All(fn func(K, V) bool) {
	for _, l := range m.leaves {
		if !fn(l.Key, l.Value) {
			return
		}
	}
}
