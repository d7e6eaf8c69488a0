// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package abstract

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type intTree struct {
	Tree[int]
	handles map[int]Handle
}

func newIntTree(t *testing.T, opts ...Option) *intTree {
	t.Helper()
	it := &intTree{handles: map[int]Handle{}}
	it.Init(NewArena[int](16), OrderedCompare[int], MakeConfig(append(opts, WithVerification())...))
	return it
}

func (it *intTree) insert(t *testing.T, keys ...int) {
	t.Helper()
	for _, k := range keys {
		h := it.arena.Alloc(k)
		_, err := it.Insert(h)
		require.NoError(t, err, "inserting %d", k)
		it.handles[k] = h
	}
}

func (it *intTree) remove(t *testing.T, keys ...int) {
	t.Helper()
	for _, k := range keys {
		h, ok := it.handles[k]
		require.True(t, ok, "removing %d", k)
		it.Remove(h)
		it.arena.Free(h)
		delete(it.handles, k)
	}
}

func (it *intTree) keys() []int {
	var out []int
	for h := it.First(); h != Nil; h = it.Successor(h) {
		out = append(out, it.Item(h))
	}
	return out
}

func (it *intTree) reverseKeys() []int {
	var out []int
	for h := it.Last(); h != Nil; h = it.Predecessor(h) {
		out = append(out, it.Item(h))
	}
	return out
}

func TestInsertRemove(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 50, 30, 70, 20, 40, 60, 80)
	require.Equal(t, 50, tree.Item(tree.Root()))
	require.Equal(t, 3, tree.Depth())
	require.Equal(t, "((20)30(40))50((60)70(80))", tree.String())

	tree.remove(t, 30)
	require.Equal(t, 6, tree.Len())
	require.Equal(t, 40, tree.Item(tree.Successor(tree.handles[20])))
	require.Equal(t, []int{20, 40, 50, 60, 70, 80}, tree.keys())
	require.NoError(t, tree.Verify())
}

func TestAscendingInsertsStayBalanced(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 1, 2, 3, 4, 5, 6, 7)
	require.Equal(t, "((1)2(3))4((5)6(7))", tree.String())
	require.Equal(t, 3, tree.Depth())
}

func TestDoubleRotation(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 30, 10, 20)
	require.Equal(t, "(10)20(30)", tree.String())
	require.Equal(t, 2, tree.Depth())

	tree = newIntTree(t)
	tree.insert(t, 10, 30, 20)
	require.Equal(t, "(10)20(30)", tree.String())
}

func TestRemoveRotationKeepsHeight(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 2, 1, 4, 3, 5)
	require.Equal(t, 3, tree.Depth())

	// Removing 1 leaves 2 two levels light on the left with a balanced
	// right child, so a single rotation restores balance without
	// changing the height.
	tree.remove(t, 1)
	require.Equal(t, "(2(3))4(5)", tree.String())
	require.Equal(t, 3, tree.Depth())
}

func TestRemoveNodeWithTwoChildren(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 4, 2, 6, 1, 3, 5, 7)
	tree.remove(t, 4)
	require.Equal(t, []int{1, 2, 3, 5, 6, 7}, tree.keys())
	require.Equal(t, 5, tree.Item(tree.Root()))

	tree.remove(t, 5, 6, 7)
	require.Equal(t, []int{1, 2, 3}, tree.keys())
	require.Equal(t, 2, tree.Depth())
}

func TestRemoveToEmpty(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 1)
	require.Equal(t, 1, tree.Depth())
	tree.remove(t, 1)
	require.True(t, tree.IsEmpty())
	require.Equal(t, 0, tree.Depth())
	require.Equal(t, Nil, tree.First())
	require.Equal(t, Nil, tree.Last())
	require.Equal(t, "", tree.String())
	tree.insert(t, 2)
	require.Equal(t, []int{2}, tree.keys())
}

func TestDuplicateKey(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 1, 2, 3)
	h := tree.arena.Alloc(2)
	r, err := tree.Insert(h)
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, Found, r.Kind)
	require.Equal(t, tree.handles[2], r.Node)
	require.Equal(t, 3, tree.Len())
	require.False(t, tree.arena.Linked(h))
	tree.arena.Free(h)
}

func TestCapacity(t *testing.T) {
	tree := newIntTree(t, WithCapacity(2))
	tree.insert(t, 1, 2)
	h := tree.arena.Alloc(3)
	_, err := tree.Insert(h)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	tree.remove(t, 1)
	_, err = tree.Insert(h)
	require.NoError(t, err)
}

func TestSearch(t *testing.T) {
	tree := newIntTree(t)
	require.Equal(t, SearchResult{Kind: EmptyTree}, tree.Search(tree.probe(1)))
	tree.insert(t, 20, 10, 30)

	r := tree.Search(tree.probe(10))
	require.Equal(t, SearchResult{Kind: Found, Node: tree.handles[10]}, r)
	r = tree.Search(tree.probe(5))
	require.Equal(t, SearchResult{Kind: InsertAsLeft, Node: tree.handles[10]}, r)
	r = tree.Search(tree.probe(15))
	require.Equal(t, SearchResult{Kind: InsertAsRight, Node: tree.handles[10]}, r)

	h := tree.arena.Alloc(15)
	require.NoError(t, tree.InsertAt(h, r))
	require.Equal(t, []int{10, 15, 20, 30}, tree.keys())
	require.Equal(t, "InsertAsRight", r.Kind.String())
}

func TestIterator(t *testing.T) {
	tree := newIntTree(t)
	tree.insert(t, 10, 20, 30, 40)
	it := tree.MakeIter()
	require.False(t, it.Valid())

	it.SeekGE(20)
	require.Equal(t, 20, it.Cur())
	it.SeekGE(25)
	require.Equal(t, 30, it.Cur())
	it.SeekGE(45)
	require.False(t, it.Valid())

	it.SeekLT(20)
	require.Equal(t, 10, it.Cur())
	it.SeekLT(35)
	require.Equal(t, 30, it.Cur())
	it.SeekLT(10)
	require.False(t, it.Valid())

	var got []int
	for it.Last(); it.Valid(); it.Prev() {
		got = append(got, it.Cur())
	}
	require.Equal(t, []int{40, 30, 20, 10}, got)
}

func TestRandomized(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 20; round++ {
		tree := newIntTree(t)
		N := rng.Intn(300)
		present := map[int]bool{}
		for _, k := range rng.Perm(N) {
			tree.insert(t, k)
			present[k] = true
		}
		for _, k := range rng.Perm(N) {
			if rng.Float64() < .5 {
				tree.remove(t, k)
				delete(present, k)
			}
		}
		var want []int
		for k := range present {
			want = append(want, k)
		}
		sort.Ints(want)
		got := tree.keys()
		require.Equal(t, len(want), len(got))
		if len(want) > 0 {
			require.Equal(t, want, got)
		}
		for i := range want {
			require.Equal(t, want[len(want)-1-i], tree.reverseKeys()[i])
		}
		for _, i := range rng.Perm(len(want)) {
			require.Equal(t, want[i], tree.Item(tree.Nth(i)))
		}
		require.Equal(t, Nil, tree.Nth(len(want)))
		require.Equal(t, Nil, tree.Nth(-1))
		require.True(t, PopulationInBounds(tree.Len(), tree.Depth()))
	}
}

func TestFillBounds(t *testing.T) {
	for d, want := range []uint64{0, 1, 2, 4, 7, 12, 20, 33, 54} {
		require.Equal(t, want, WorstCaseFill(d), "depth %d", d)
	}
	for d, want := range []uint64{0, 1, 3, 7, 15, 31} {
		require.Equal(t, want, BestCaseFill(d), "depth %d", d)
	}
	require.True(t, PopulationInBounds(7, 3))
	require.True(t, PopulationInBounds(4, 3))
	require.False(t, PopulationInBounds(3, 3))
	require.False(t, PopulationInBounds(8, 3))
}

func TestVerifyDetectsCorruption(t *testing.T) {
	tree := &intTree{handles: map[int]Handle{}}
	tree.Init(NewArena[int](0), OrderedCompare[int], Config{})
	tree.insert(t, 2, 1, 3)
	require.NoError(t, tree.Verify())

	tree.n(tree.handles[2]).balance = 1
	require.ErrorIs(t, tree.Verify(), ErrCorrupt)
	tree.n(tree.handles[2]).balance = 0

	tree.n(tree.handles[1]).item = 5
	require.ErrorIs(t, tree.Verify(), ErrCorrupt)
	tree.n(tree.handles[1]).item = 1

	tree.depth = 3
	require.ErrorIs(t, tree.Verify(), ErrCorrupt)
}

func TestArena(t *testing.T) {
	a := NewArena[string](0)
	x := a.Alloc("x")
	y := a.Alloc("y")
	require.NotEqual(t, Nil, x)
	require.Equal(t, 2, a.Len())
	require.Equal(t, "y", *a.Item(y))

	a.Free(x)
	require.Equal(t, 1, a.Len())
	require.Panics(t, func() { a.Free(x) })
	require.Panics(t, func() { a.Item(Nil) })
	require.Equal(t, x, a.Alloc("z"))

	var tree Tree[string]
	tree.Init(a, OrderedCompare[string], Config{})
	_, err := tree.Insert(y)
	require.NoError(t, err)
	require.Panics(t, func() { a.Free(y) })
	_, err = tree.Insert(y)
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Panics(t, func() { _ = tree.InsertAt(y, SearchResult{Kind: InsertAsLeft, Node: y}) })
}
