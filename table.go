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

// Package avltable provides an ordered table backed by a height-balanced
// binary search tree with parent links.
//
// The table separates the memory of its nodes from their membership in the
// tree. Alloc and Free manage nodes; Insert and Remove link and unlink them
// without allocating, so a node can be prepared before it is linked and
// kept after it is unlinked. Alloc and Free may move node storage and need
// the same exclusive access as Insert and Remove. Upsert, Delete and Get
// combine the two steps for callers which do not care.
package avltable

import (
	"errors"
	"fmt"

	"github.com/ajwerner/avltable/internal/abstract"
	"golang.org/x/exp/constraints"
)

// Node is the handle of a node in a Table.
type Node = abstract.Handle

// Nil is the Node which refers to nothing.
const Nil = abstract.Nil

// SearchResult is the outcome of Search.
type SearchResult = abstract.SearchResult

// SearchKind classifies a SearchResult.
type SearchKind = abstract.SearchKind

// Search outcomes.
const (
	EmptyTree     = abstract.EmptyTree
	Found         = abstract.Found
	InsertAsLeft  = abstract.InsertAsLeft
	InsertAsRight = abstract.InsertAsRight
)

// MatchResult is returned by the match function of EnumerateLikeADirectory.
type MatchResult = abstract.MatchResult

// Match results.
const (
	Match         = abstract.Match
	NoMatch       = abstract.NoMatch
	NoMoreMatches = abstract.NoMoreMatches
)

// DirCursor is the resumable position of EnumerateLikeADirectory.
type DirCursor = abstract.DirCursor

// Item is a type which knows how to order itself.
type Item[T any] interface {
	abstract.Item[T]
}

// Option configures a Table.
type Option = abstract.Option

// WithCapacity bounds the number of elements the table accepts.
func WithCapacity(n int) Option { return abstract.WithCapacity(n) }

// WithVerification checks every structural invariant after each mutation.
// It makes mutations linear in the size of the table.
func WithVerification() Option { return abstract.WithVerification() }

var (
	// ErrDuplicateKey is returned when inserting a key which is present.
	ErrDuplicateKey = abstract.ErrDuplicateKey
	// ErrCapacityExceeded is returned when inserting into a full table.
	ErrCapacityExceeded = abstract.ErrCapacityExceeded
	// ErrNotFound is returned when a key is not present.
	ErrNotFound = abstract.ErrNotFound
	// ErrCorrupt wraps the failures reported by Verify.
	ErrCorrupt = abstract.ErrCorrupt
)

// Table is an ordered collection of items with unique keys. It is not safe
// for concurrent use; callers provide their own synchronization.
type Table[T any] struct {
	arena *abstract.Arena[T]
	t     abstract.Tree[T]
}

// New constructs an empty table ordered by cmp.
func New[T any](cmp func(T, T) int, opts ...Option) *Table[T] {
	tab := &Table[T]{arena: abstract.NewArena[T](0)}
	tab.t.Init(tab.arena, cmp, abstract.MakeConfig(opts...))
	return tab
}

// NewOrdered constructs an empty table of an ordered built-in type.
func NewOrdered[T constraints.Ordered](opts ...Option) *Table[T] {
	return New[T](abstract.OrderedCompare[T], opts...)
}

// NewItems constructs an empty table of items ordered by their Less method.
func NewItems[T Item[T]](opts ...Option) *Table[T] {
	return New[T](abstract.LessCompare[T], opts...)
}

// Alloc returns a detached node holding item.
func (t *Table[T]) Alloc(item T) Node { return t.arena.Alloc(item) }

// Free releases a detached node.
func (t *Table[T]) Free(n Node) { t.arena.Free(n) }

// Item returns the item held by n.
func (t *Table[T]) Item(n Node) T { return t.t.Item(n) }

// Search descends the tree guided by probe, which orders the sought key
// against an item: negative for less, zero for equal, positive for greater.
func (t *Table[T]) Search(probe func(T) int) SearchResult {
	return t.t.Search(probe)
}

// Lookup returns the node holding an item equal to key.
func (t *Table[T]) Lookup(key T) (Node, bool) { return t.t.Lookup(key) }

// Insert links the detached node n. If an equal item is present the table is
// unchanged and the node holding it is returned with ErrDuplicateKey.
func (t *Table[T]) Insert(n Node) (existing Node, err error) {
	r, err := t.t.Insert(n)
	if errors.Is(err, ErrDuplicateKey) {
		return r.Node, err
	}
	return Nil, err
}

// InsertAt links the detached node n at the position found by a Search made
// since the table last changed.
func (t *Table[T]) InsertAt(n Node, r SearchResult) error {
	return t.t.InsertAt(n, r)
}

// Remove unlinks n, which must be in the table. The node may then be freed
// or inserted again.
func (t *Table[T]) Remove(n Node) { t.t.Remove(n) }

// Upsert stores item, replacing an equal item if one is present.
func (t *Table[T]) Upsert(item T) (replaced bool, err error) {
	r := t.t.Search(func(x T) int { return t.t.Compare(item, x) })
	if r.Kind == Found {
		*t.arena.Item(r.Node) = item
		return true, nil
	}
	n := t.arena.Alloc(item)
	if err := t.t.InsertAt(n, r); err != nil {
		t.arena.Free(n)
		return false, err
	}
	return false, nil
}

// Get returns the item equal to key.
func (t *Table[T]) Get(key T) (_ T, ok bool) {
	n, ok := t.t.Lookup(key)
	if !ok {
		var zero T
		return zero, false
	}
	return t.t.Item(n), true
}

// Delete removes and frees the node holding the item equal to key and
// returns the item.
func (t *Table[T]) Delete(key T) (T, error) {
	n, ok := t.t.Lookup(key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("avltable: deleting %v: %w", key, ErrNotFound)
	}
	item := t.t.Item(n)
	t.t.Remove(n)
	t.arena.Free(n)
	return item, nil
}

// First returns the smallest node or Nil.
func (t *Table[T]) First() Node { return t.t.First() }

// Last returns the largest node or Nil.
func (t *Table[T]) Last() Node { return t.t.Last() }

// Next returns the node following n or Nil.
func (t *Table[T]) Next(n Node) Node { return t.t.Successor(n) }

// Prev returns the node preceding n or Nil.
func (t *Table[T]) Prev(n Node) Node { return t.t.Predecessor(n) }

// Enumerate walks the table in order with a cursor kept by the table. The
// first call, and any call with restart, returns the first node. Removing
// the node at the cursor does not disturb the walk.
func (t *Table[T]) Enumerate(restart bool) Node { return t.t.Enumerate(restart) }

// EnumerateFrom walks the table in order with a caller-held cursor, Nil to
// start. The node at the cursor must not be removed between calls.
func (t *Table[T]) EnumerateFrom(cursor *Node) Node { return t.t.EnumerateFrom(cursor) }

// EnumerateLikeADirectory returns the next node accepted by match, starting
// at key or after it with next. The cursor makes resumption cheap while no
// node is removed; after a removal the walk resumes by searching for key, so
// callers pass the last key returned along with next set.
func (t *Table[T]) EnumerateLikeADirectory(
	key T, match func(T) MatchResult, next bool, cursor *DirCursor,
) Node {
	probe := func(x T) int { return t.t.Compare(key, x) }
	return t.t.EnumerateLikeADirectory(probe, match, next, cursor)
}

// Nth returns the node at zero-based position i, or Nil. Consecutive calls
// with nearby positions are cheap. Nth is a mutation for the purposes of
// synchronization.
func (t *Table[T]) Nth(i int) Node { return t.t.Nth(i) }

// Len returns the number of items in the table.
func (t *Table[T]) Len() int { return t.t.Len() }

// Depth returns the height of the tree.
func (t *Table[T]) Depth() int { return t.t.Depth() }

// IsEmpty returns true if the table holds no items.
func (t *Table[T]) IsEmpty() bool { return t.t.IsEmpty() }

// Verify checks the structural invariants of the tree.
func (t *Table[T]) Verify() error { return t.t.Verify() }

// String renders the shape of the tree, each node as its parenthesized left
// subtree, item and parenthesized right subtree.
func (t *Table[T]) String() string { return t.t.String() }

// Iterator is responsible for search and traversal within a Table.
type Iterator[T any] struct {
	it abstract.Iterator[T]
}

// MakeIter constructs an unpositioned Iterator.
func (t *Table[T]) MakeIter() Iterator[T] {
	return Iterator[T]{t.t.MakeIter()}
}

// SeekGE seeks to the first item greater than or equal to key.
func (it *Iterator[T]) SeekGE(key T) { it.it.SeekGE(key) }

// SeekLT seeks to the last item less than key.
func (it *Iterator[T]) SeekLT(key T) { it.it.SeekLT(key) }

func (it *Iterator[T]) First() { it.it.First() }

func (it *Iterator[T]) Last() { it.it.Last() }

func (it *Iterator[T]) Next() { it.it.Next() }

func (it *Iterator[T]) Prev() { it.it.Prev() }

func (it *Iterator[T]) Valid() bool { return it.it.Valid() }

// Node returns the node at the current position.
func (it *Iterator[T]) Node() Node { return it.it.Node() }

func (it *Iterator[T]) Cur() T { return it.it.Cur() }
