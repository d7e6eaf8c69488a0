// Package interval provides a table of non-overlapping ranges of unsigned
// integer keys, such as the regions of an address space.
//
// Besides point and overlap queries the table can find unused ranges of a
// given size and alignment, scanning either from the bottom or from the
// top of a window of keys. The scans are linear in the number of ranges
// they pass; the tree carries no per-subtree gap summaries.
package interval

import (
	"errors"
	"fmt"

	"github.com/ajwerner/avltable/internal/abstract"
	"golang.org/x/exp/constraints"
)

var (
	// ErrConflict is returned when inserting a range which overlaps one in
	// the table.
	ErrConflict = errors.New("range conflict")
	// ErrInvalidRange is returned for ranges whose Low exceeds their High
	// and for malformed free range requests.
	ErrInvalidRange = errors.New("invalid range")
	// ErrNoFreeRange is returned when no unused range satisfies a request.
	ErrNoFreeRange = errors.New("no free range")

	// ErrCapacityExceeded is returned when inserting into a full table.
	ErrCapacityExceeded = abstract.ErrCapacityExceeded
	// ErrNotFound is returned when no range contains a key.
	ErrNotFound = abstract.ErrNotFound
	// ErrCorrupt wraps the failures reported by Verify.
	ErrCorrupt = abstract.ErrCorrupt
)

// Range is an inclusive range of keys.
type Range[K constraints.Unsigned] struct {
	Low, High K
}

// Contains returns true if k lies within the range.
func (r Range[K]) Contains(k K) bool { return r.Low <= k && k <= r.High }

// Overlaps returns true if the ranges share a key.
func (r Range[K]) Overlaps(o Range[K]) bool { return r.Low <= o.High && o.Low <= r.High }

// Size returns the number of keys in the range. It wraps to zero for the
// range covering every key.
func (r Range[K]) Size() K { return r.High - r.Low + 1 }

func (r Range[K]) String() string { return fmt.Sprintf("[%d,%d]", r.Low, r.High) }

func (r Range[K]) valid() bool { return r.Low <= r.High }

// Node is the handle of a node in a Table.
type Node = abstract.Handle

// Nil is the Node which refers to nothing.
const Nil = abstract.Nil

// Option configures a Table.
type Option = abstract.Option

// WithCapacity bounds the number of ranges the table accepts.
func WithCapacity(n int) Option { return abstract.WithCapacity(n) }

// WithVerification checks every structural invariant after each mutation.
func WithVerification() Option { return abstract.WithVerification() }

type entry[K constraints.Unsigned, V any] struct {
	r Range[K]
	v V
}

// Table holds non-overlapping ranges, each with a value.
//
// Table is not safe for concurrent mutation. Locate, LocateInTree,
// FindConflict, the navigation methods and Walk only read the table and may
// run concurrently with each other, such as under the read side of a
// sync.RWMutex. Alloc and Free may grow or reuse the node storage which
// readers dereference, so they take the same exclusive lock as Insert and
// Remove.
type Table[K constraints.Unsigned, V any] struct {
	arena *abstract.Arena[entry[K, V]]
	t     abstract.Tree[entry[K, V]]
}

// New constructs an empty table.
func New[K constraints.Unsigned, V any](opts ...Option) *Table[K, V] {
	t := &Table[K, V]{arena: abstract.NewArena[entry[K, V]](0)}
	t.t.Init(t.arena, compareEntries[K, V], abstract.MakeConfig(opts...))
	return t
}

func compareEntries[K constraints.Unsigned, V any](a, b entry[K, V]) int {
	return abstract.OrderedCompare(a.r.Low, b.r.Low)
}

// Alloc returns a detached node holding r and v.
func (t *Table[K, V]) Alloc(r Range[K], v V) (Node, error) {
	if !r.valid() {
		return Nil, fmt.Errorf("interval: allocating %v: %w", r, ErrInvalidRange)
	}
	return t.arena.Alloc(entry[K, V]{r: r, v: v}), nil
}

// Free releases a detached node.
func (t *Table[K, V]) Free(n Node) { t.arena.Free(n) }

// Insert links the detached node n. It fails with ErrConflict if the range
// of n overlaps a range in the table.
func (t *Table[K, V]) Insert(n Node) error {
	r := t.Range(n)
	if c := t.FindConflict(r); c != Nil {
		return fmt.Errorf("interval: inserting %v: %w with %v", r, ErrConflict, t.Range(c))
	}
	sr := t.t.Search(lowProbe[K, V](r.Low))
	return t.t.InsertAt(n, sr)
}

// Remove unlinks n, which must be in the table.
func (t *Table[K, V]) Remove(n Node) { t.t.Remove(n) }

// Range returns the range held by n.
func (t *Table[K, V]) Range(n Node) Range[K] { return t.arena.Item(n).r }

// Value returns the value held by n.
func (t *Table[K, V]) Value(n Node) V { return t.arena.Item(n).v }

// SetValue replaces the value held by n.
func (t *Table[K, V]) SetValue(n Node, v V) { t.arena.Item(n).v = v }

// Locate returns the node whose range contains k, or Nil.
//
// The node found last is remembered and checked before searching, which
// makes repeated lookups within one range cheap. Locate may run
// concurrently with other readers.
func (t *Table[K, V]) Locate(k K) Node {
	if h := t.t.Hint(); h != Nil && t.Range(h).Contains(k) {
		return h
	}
	n := t.LocateInTree(k)
	if n != Nil {
		t.t.SetHint(n)
	}
	return n
}

// LocateInTree returns the node whose range contains k, or Nil, without
// consulting or updating the remembered node.
func (t *Table[K, V]) LocateInTree(k K) Node {
	r := t.t.Search(func(e entry[K, V]) int {
		switch {
		case k < e.r.Low:
			return -1
		case k <= e.r.High:
			return 0
		default:
			return 1
		}
	})
	if r.Kind != abstract.Found {
		return Nil
	}
	return r.Node
}

// FindConflict returns a node whose range overlaps r, or Nil.
func (t *Table[K, V]) FindConflict(r Range[K]) Node {
	sr := t.t.Search(func(e entry[K, V]) int {
		switch {
		case r.Low > e.r.High:
			return 1
		case r.High < e.r.Low:
			return -1
		default:
			return 0
		}
	})
	if sr.Kind != abstract.Found {
		return Nil
	}
	return sr.Node
}

func lowProbe[K constraints.Unsigned, V any](k K) func(entry[K, V]) int {
	return func(e entry[K, V]) int { return abstract.OrderedCompare(k, e.r.Low) }
}

// floor returns the node with the greatest Low not exceeding k, or Nil.
func (t *Table[K, V]) floor(k K) Node {
	r := t.t.Search(lowProbe[K, V](k))
	switch r.Kind {
	case abstract.InsertAsLeft:
		return t.t.Predecessor(r.Node)
	default:
		return r.Node
	}
}

// First returns the node with the lowest range, or Nil.
func (t *Table[K, V]) First() Node { return t.t.First() }

// Last returns the node with the highest range, or Nil.
func (t *Table[K, V]) Last() Node { return t.t.Last() }

// Next returns the node following n, or Nil.
func (t *Table[K, V]) Next(n Node) Node { return t.t.Successor(n) }

// Prev returns the node preceding n, or Nil.
func (t *Table[K, V]) Prev(n Node) Node { return t.t.Predecessor(n) }

// Walk calls fn for every node in order until fn returns false.
func (t *Table[K, V]) Walk(fn func(n Node, r Range[K], v V) bool) {
	for n := t.t.First(); n != Nil; n = t.t.Successor(n) {
		e := t.arena.Item(n)
		if !fn(n, e.r, e.v) {
			return
		}
	}
}

// Len returns the number of ranges in the table.
func (t *Table[K, V]) Len() int { return t.t.Len() }

// Depth returns the height of the tree.
func (t *Table[K, V]) Depth() int { return t.t.Depth() }

// Verify checks the structural invariants of the tree and that no two
// ranges overlap.
func (t *Table[K, V]) Verify() error {
	if err := t.t.Verify(); err != nil {
		return err
	}
	prev := Nil
	for n := t.t.First(); n != Nil; n = t.t.Successor(n) {
		r := t.Range(n)
		if !r.valid() {
			return fmt.Errorf("%w: node %d holds %v", ErrCorrupt, n, r)
		}
		if prev != Nil && t.Range(prev).High >= r.Low {
			return fmt.Errorf("%w: %v overlaps %v", ErrCorrupt, t.Range(prev), r)
		}
		prev = n
	}
	return nil
}

// String renders the shape of the tree.
func (t *Table[K, V]) String() string { return t.t.String() }

func (e entry[K, V]) String() string { return e.r.String() }
