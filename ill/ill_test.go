// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package ill

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, l *List, first uint32) []uint32 {
	t.Helper()
	var vals []uint32
	for id := first; id != Null; id = l.At(id).Next {
		vals = append(vals, l.At(id).Value)
	}
	return vals
}

func TestAppendFirst(t *testing.T) {
	r := require.New(t)
	var l List

	first := Null
	for _, v := range []uint32{3, 2, 1} {
		first = l.AppendFirst(first, v)
	}
	r.Equal([]uint32{1, 2, 3}, collect(t, &l, first))
	r.Equal(3, l.Len())
}

func TestAppendAfter(t *testing.T) {
	r := require.New(t)
	var l List

	a := l.AppendFirst(Null, 1)
	l.AppendAfter(a, 3)
	mid := l.AppendAfter(a, 2)
	_ = mid

	r.Equal([]uint32{1, 2, 3}, collect(t, &l, a))
}

func TestAppendAtOrdering(t *testing.T) {
	r := require.New(t)
	var l List

	first := Null
	var err error
	_, first, err = l.AppendAt(first, 0, 10)
	r.NoError(err)
	_, first, err = l.AppendAt(first, 1, 30)
	r.NoError(err)
	_, first, err = l.AppendAt(first, 1, 20)
	r.NoError(err)

	r.Equal([]uint32{10, 20, 30}, collect(t, &l, first))
}

func TestAppendAtOutOfBounds(t *testing.T) {
	r := require.New(t)
	var l List

	first := l.AppendFirst(Null, 1)
	_, _, err := l.AppendAt(first, 5, 99)
	r.Error(err)
	var oob ErrOutOfBounds
	r.ErrorAs(err, &oob)
}

func TestRemoveHead(t *testing.T) {
	r := require.New(t)
	var l List

	first := Null
	for _, v := range []uint32{3, 2, 1} {
		first = l.AppendFirst(first, v)
	}
	first = l.Remove(first, first)
	r.Equal([]uint32{2, 3}, collect(t, &l, first))
}

func TestRemoveMiddle(t *testing.T) {
	r := require.New(t)
	var l List

	a := l.AppendFirst(Null, 1)
	b := l.AppendAfter(a, 2)
	l.AppendAfter(b, 3)

	first := l.Remove(a, b)
	r.Equal([]uint32{1, 3}, collect(t, &l, first))
	// id b is dead, not reused, but value is still intact
	r.Equal(uint32(2), l.At(b).Value)
	r.Equal(Null, l.At(b).Next)
}

func TestPopFirst(t *testing.T) {
	r := require.New(t)
	var l List

	first := Null
	for _, v := range []uint32{3, 2, 1} {
		first = l.AppendFirst(first, v)
	}

	id, newFirst, ok := l.PopFirst(first)
	r.True(ok)
	r.Equal(uint32(1), l.At(id).Value)
	first = newFirst
	r.Equal([]uint32{2, 3}, collect(t, &l, first))

	empty := Null
	_, _, ok = l.PopFirst(empty)
	r.False(ok)
}

func TestNth(t *testing.T) {
	r := require.New(t)
	var l List

	first := Null
	for _, v := range []uint32{3, 2, 1} {
		first = l.AppendFirst(first, v)
	}

	v, ok := l.Nth(first, 0)
	r.True(ok)
	r.Equal(uint32(1), v)

	v, ok = l.Nth(first, 2)
	r.True(ok)
	r.Equal(uint32(3), v)

	_, ok = l.Nth(first, 3)
	r.False(ok)
}

func TestNthAfter(t *testing.T) {
	r := require.New(t)
	var l List

	a := l.AppendFirst(Null, 1)
	l.AppendAfter(a, 2)
	l.AppendAfter(l.At(a).Next, 3)

	v, ok := l.NthAfter(a, 1)
	r.True(ok)
	r.Equal(uint32(2), v)

	id, ok := l.NthIDAfter(a, 2)
	r.True(ok)
	r.Equal(uint32(3), l.At(id).Value)
}

func TestSetValue(t *testing.T) {
	r := require.New(t)
	var l List

	a := l.AppendFirst(Null, 1)
	l.SetValue(a, 99)
	r.Equal(uint32(99), l.At(a).Value)
}

func TestInsertFirst(t *testing.T) {
	r := require.New(t)
	var l List

	first := l.AppendFirst(Null, 2)
	// allocate a node off to the side, then splice it in as the head
	loose := l.AppendAfter(first, 3)
	l.Remove(first, loose)

	first = l.InsertFirst(first, loose)
	r.Equal([]uint32{3, 2}, collect(t, &l, first))
}

func TestInsertAfter(t *testing.T) {
	r := require.New(t)
	var l List

	a := l.AppendFirst(Null, 1)
	c := l.AppendAfter(a, 3)
	// allocate a node off to the side, then splice it in between a and c
	loose := l.AppendAfter(c, 2)
	l.Remove(a, loose)

	l.InsertAfter(a, loose)
	r.Equal([]uint32{1, 2, 3}, collect(t, &l, a))
}

func TestSubListFrom(t *testing.T) {
	r := require.New(t)
	var l List

	firstA := Null
	for _, v := range []uint32{2, 1} {
		firstA = l.AppendFirst(firstA, v)
	}
	firstB := Null
	for _, v := range []uint32{20, 10} {
		firstB = l.AppendFirst(firstB, v)
	}

	sub, head := l.SubListFrom(firstB)
	r.Same(&l, sub)
	r.Equal(firstB, head)
	r.Equal([]uint32{10, 20}, collect(t, sub, head))
}

func TestMultipleListsShareArena(t *testing.T) {
	r := require.New(t)
	var l List

	firstA := Null
	for _, v := range []uint32{2, 1} {
		firstA = l.AppendFirst(firstA, v)
	}
	firstB := Null
	for _, v := range []uint32{20, 10} {
		firstB = l.AppendFirst(firstB, v)
	}

	r.Equal([]uint32{1, 2}, collect(t, &l, firstA))
	r.Equal([]uint32{10, 20}, collect(t, &l, firstB))
	r.Equal(4, l.Len())
}
