package avltable

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type Int int

func (i Int) Less(o Int) bool { return i < o }

func TestTable(t *testing.T) {
	tab := NewOrdered[int](WithVerification())
	for _, k := range []int{50, 30, 70, 20, 40, 60, 80} {
		_, err := tab.Insert(tab.Alloc(k))
		require.NoError(t, err)
	}
	root := tab.Search(func(int) int { return 0 })
	require.Equal(t, Found, root.Kind)
	require.Equal(t, 50, tab.Item(root.Node))
	require.Equal(t, 3, tab.Depth())

	deleted, err := tab.Delete(30)
	require.NoError(t, err)
	require.Equal(t, 30, deleted)
	n20, ok := tab.Lookup(20)
	require.True(t, ok)
	require.Equal(t, 40, tab.Item(tab.Next(n20)))
	require.Equal(t, 20, tab.Item(tab.Prev(tab.Next(n20))))
	require.Equal(t, 6, tab.Len())

	_, err = tab.Delete(30)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInsertDuplicate(t *testing.T) {
	tab := NewOrdered[string]()
	a := tab.Alloc("a")
	_, err := tab.Insert(a)
	require.NoError(t, err)
	dup := tab.Alloc("a")
	existing, err := tab.Insert(dup)
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, a, existing)
	tab.Free(dup)
	require.Equal(t, 1, tab.Len())
}

func TestInsertAfterSearch(t *testing.T) {
	tab := NewOrdered[int]()
	for _, k := range []int{10, 30} {
		replaced, err := tab.Upsert(k)
		require.NoError(t, err)
		require.False(t, replaced)
	}
	key := 20
	r := tab.Search(func(x int) int { return key - x })
	require.NotEqual(t, Found, r.Kind)
	require.NoError(t, tab.InsertAt(tab.Alloc(key), r))
	require.Equal(t, "(10)20(30)", tab.String())
}

type kv struct {
	k string
	v int
}

func TestUpsertReplaces(t *testing.T) {
	tab := New(func(a, b kv) int { return strings.Compare(a.k, b.k) })
	_, err := tab.Upsert(kv{"foo", 1})
	require.NoError(t, err)
	replaced, err := tab.Upsert(kv{"foo", 2})
	require.NoError(t, err)
	require.True(t, replaced)
	got, ok := tab.Get(kv{k: "foo"})
	require.True(t, ok)
	require.Equal(t, 2, got.v)
	_, ok = tab.Get(kv{k: "bar"})
	require.False(t, ok)
}

func TestCapacityExceeded(t *testing.T) {
	tab := NewOrdered[int](WithCapacity(1))
	_, err := tab.Upsert(1)
	require.NoError(t, err)
	_, err = tab.Upsert(2)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.Equal(t, 1, tab.Len())
}

func TestItems(t *testing.T) {
	tab := NewItems[Int]()
	for _, i := range []Int{2, 12, 1} {
		_, err := tab.Upsert(i)
		require.NoError(t, err)
	}
	var got []Int
	it := tab.MakeIter()
	for it.First(); it.Valid(); it.Next() {
		got = append(got, it.Cur())
	}
	require.Equal(t, []Int{1, 2, 12}, got)

	it.SeekGE(3)
	require.Equal(t, Int(12), it.Cur())
	it.SeekLT(3)
	require.Equal(t, Int(2), it.Cur())
	require.Equal(t, tab.Nth(1), it.Node())
}

// TestRoundTrip checks that inserting and then removing a key leaves the
// keys and invariants as they were.
func TestRoundTrip(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(2))
	tab := NewOrdered[int](WithVerification())
	for _, k := range rng.Perm(200) {
		_, err := tab.Upsert(2 * k)
		require.NoError(t, err)
	}
	before := keys(tab)
	for i := 0; i < 100; i++ {
		k := 2*rng.Intn(200) + 1
		n := tab.Alloc(k)
		_, err := tab.Insert(n)
		require.NoError(t, err)
		tab.Remove(n)
		tab.Free(n)
		require.Equal(t, before, keys(tab))
		require.NoError(t, tab.Verify())
	}
}

func TestNavigationDuality(t *testing.T) {
	t.Parallel()
	tab := NewOrdered[int]()
	for _, k := range rand.Perm(500) {
		_, err := tab.Upsert(k)
		require.NoError(t, err)
	}
	for a := tab.First(); a != Nil; a = tab.Next(a) {
		b := tab.Next(a)
		if b == Nil {
			require.Equal(t, tab.Last(), a)
			continue
		}
		require.Less(t, tab.Item(a), tab.Item(b))
		require.Equal(t, a, tab.Prev(b))
	}
	require.Equal(t, Nil, tab.Prev(tab.First()))
}

func TestEnumerationCompleteness(t *testing.T) {
	t.Parallel()
	const N = 300
	tab := NewOrdered[int]()
	for _, k := range rand.Perm(N) {
		_, err := tab.Upsert(k)
		require.NoError(t, err)
	}
	var got []int
	var cursor Node
	for n := tab.EnumerateFrom(&cursor); n != Nil; n = tab.EnumerateFrom(&cursor) {
		got = append(got, tab.Item(n))
	}
	require.Len(t, got, N)
	require.True(t, sort.IntsAreSorted(got))

	got = got[:0]
	for n := tab.Enumerate(true); n != Nil; n = tab.Enumerate(false) {
		got = append(got, tab.Item(n))
	}
	require.Len(t, got, N)
}

// TestDirectoryEnumerationSurvivesRemoval removes the node at the cursor
// between calls and checks that no remaining key is skipped or repeated.
func TestDirectoryEnumerationSurvivesRemoval(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(3))
	tab := NewOrdered[int](WithVerification())
	for _, k := range rng.Perm(100) {
		_, err := tab.Upsert(k)
		require.NoError(t, err)
	}
	var (
		c       DirCursor
		visited []int
		key     int
		next    bool
	)
	for {
		n := tab.EnumerateLikeADirectory(key, nil, next, &c)
		if n == Nil {
			break
		}
		key, next = tab.Item(n), true
		visited = append(visited, key)
		if key%3 == 0 {
			_, err := tab.Delete(key)
			require.NoError(t, err)
		}
		// Keys inserted behind the cursor are not visited.
		if key%10 == 5 {
			_, err := tab.Upsert(-key)
			require.NoError(t, err)
		}
	}
	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, visited)
}

func keys(tab *Table[int]) []int {
	var out []int
	for n := tab.First(); n != Nil; n = tab.Next(n) {
		out = append(out, tab.Item(n))
	}
	return out
}
