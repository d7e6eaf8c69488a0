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
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrDuplicateKey is returned when inserting a node whose key is
	// already present.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCapacityExceeded is returned when inserting into a full tree.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNotFound is returned when a key is not present.
	ErrNotFound = errors.New("not found")
)

// SearchKind classifies the outcome of a Search.
type SearchKind int8

const (
	// EmptyTree means the tree has no elements.
	EmptyTree SearchKind = iota
	// Found means the probe matched the returned node.
	Found
	// InsertAsLeft means the probe belongs in the empty left slot of the
	// returned node.
	InsertAsLeft
	// InsertAsRight means the probe belongs in the empty right slot of the
	// returned node.
	InsertAsRight
)

var searchKindStrings = [...]string{
	EmptyTree:     "EmptyTree",
	Found:         "Found",
	InsertAsLeft:  "InsertAsLeft",
	InsertAsRight: "InsertAsRight",
}

func (k SearchKind) String() string {
	if int(k) < len(searchKindStrings) {
		return searchKindStrings[k]
	}
	return fmt.Sprintf("SearchKind(%d)", k)
}

// SearchResult is the outcome of a Search. Node is Nil only for EmptyTree.
// A result may be passed to InsertAt as long as the tree has not been
// mutated in the meantime.
type SearchResult struct {
	Kind SearchKind
	Node Handle
}

// Tree is a height-balanced binary search tree whose nodes live in an Arena.
// The tree never allocates or frees nodes: the caller allocates a node,
// inserts it, removes it and frees it.
//
// Above the real root sits a sentinel node. Its right child is the root and
// its parent is itself, which lets rotations and deletions at the root share
// the code paths of every other node. The sentinel's balance field is used
// as scratch space to detect a change in the height of the whole tree.
//
// A Tree must not be copied after Init.
type Tree[T any] struct {
	arena    *Arena[T]
	cmp      func(T, T) int
	sentinel Handle
	count    uint32
	depth    int
	cfg      Config
	capacity uint32

	// restartKey is the cursor of Enumerate.
	restartKey Handle
	// deleteCount invalidates directory cursors.
	deleteCount uint64
	// ordered caches the node at position whichOrdered for Nth.
	ordered      Handle
	whichOrdered int

	// hint is the Handle of the last node located through a hinted lookup.
	// It is updated by readers holding only shared access.
	hint atomic.Uint32
}

// Init prepares an empty tree. The sentinel node is allocated from arena.
func (t *Tree[T]) Init(arena *Arena[T], cmp func(T, T) int, cfg Config) {
	var zero T
	s := arena.Alloc(zero)
	n := arena.node(s)
	n.parent = s
	t.arena, t.cmp, t.sentinel = arena, cmp, s
	t.cfg, t.capacity = cfg, cfg.capacity()
	t.count, t.depth = 0, 0
	t.restartKey, t.deleteCount = Nil, 0
	t.ordered, t.whichOrdered = Nil, 0
	t.hint.Store(uint32(Nil))
}

// Arena returns the arena backing the tree.
func (t *Tree[T]) Arena() *Arena[T] { return t.arena }

// Compare compares two items using the tree's comparison function.
func (t *Tree[T]) Compare(a, b T) int { return t.cmp(a, b) }

// Len returns the number of elements in the tree.
func (t *Tree[T]) Len() int { return int(t.count) }

// IsEmpty returns true if the tree has no elements.
func (t *Tree[T]) IsEmpty() bool { return t.count == 0 }

// Depth returns the height of the tree: zero when empty, one for a single
// element.
func (t *Tree[T]) Depth() int { return t.depth }

// Item returns the item stored in the node.
func (t *Tree[T]) Item(h Handle) T { return t.arena.node(h).item }

// Root returns the root of the tree or Nil if it is empty.
func (t *Tree[T]) Root() Handle { return t.n(t.sentinel).right }

func (t *Tree[T]) n(h Handle) *node[T] { return t.arena.node(h) }

// Search descends from the root guided by probe, which reports how the
// sought key orders relative to the item of the node at hand: negative to go
// left, positive to go right, zero for a match.
func (t *Tree[T]) Search(probe func(T) int) SearchResult {
	h := t.Root()
	if h == Nil {
		return SearchResult{Kind: EmptyTree}
	}
	for steps := 1; ; steps++ {
		if invariants && steps > t.depth {
			panic(fmt.Sprintf("abstract: search took %d steps in a tree of depth %d", steps, t.depth))
		}
		n := t.n(h)
		c := probe(n.item)
		switch {
		case c == 0:
			return SearchResult{Kind: Found, Node: h}
		case c < 0:
			if n.left == Nil {
				return SearchResult{Kind: InsertAsLeft, Node: h}
			}
			h = n.left
		default:
			if n.right == Nil {
				return SearchResult{Kind: InsertAsRight, Node: h}
			}
			h = n.right
		}
	}
}

// Lookup searches for a node whose item compares equal to key.
func (t *Tree[T]) Lookup(key T) (Handle, bool) {
	r := t.Search(t.probe(key))
	if r.Kind != Found {
		return Nil, false
	}
	return r.Node, true
}

func (t *Tree[T]) probe(key T) func(T) int {
	return func(item T) int { return t.cmp(key, item) }
}

// Insert links the detached node h into the tree at the position dictated
// by its item. The tree is unchanged if an equal item is present.
func (t *Tree[T]) Insert(h Handle) (SearchResult, error) {
	r := t.Search(t.probe(t.n(h).item))
	if r.Kind == Found {
		return r, ErrDuplicateKey
	}
	return r, t.InsertAt(h, r)
}

// InsertAt links the detached node h at the position returned by a Search
// made since the last mutation of the tree. A Found result is rejected with
// ErrDuplicateKey.
func (t *Tree[T]) InsertAt(h Handle, r SearchResult) error {
	switch {
	case r.Kind == Found:
		return ErrDuplicateKey
	case t.count >= t.capacity:
		return ErrCapacityExceeded
	}
	n := t.n(h)
	if n.parent != Nil {
		panic("abstract: inserting a linked node")
	}
	n.left, n.right, n.balance = Nil, Nil, 0

	switch r.Kind {
	case EmptyTree:
		if t.count != 0 {
			panic("abstract: stale search result")
		}
		t.n(t.sentinel).right = h
		n.parent = t.sentinel
		t.depth = 1
	case InsertAsLeft, InsertAsRight:
		p := t.n(r.Node)
		slot := &p.left
		if r.Kind == InsertAsRight {
			slot = &p.right
		}
		if *slot != Nil {
			panic("abstract: stale search result")
		}
		*slot = h
		n.parent = r.Node
		t.rebalanceAfterInsert(h)
	default:
		panic(fmt.Sprintf("abstract: unknown search kind %v", r.Kind))
	}
	t.count++
	t.ordered = Nil
	t.checkAfterMutation()
	return nil
}

// rebalanceAfterInsert climbs from the freshly linked leaf h. Each ancestor
// which was balanced becomes lopsided toward h and the climb continues; the
// first one which was lopsided the other way becomes balanced, and the first
// one lopsided toward h is rotated. Either ends the climb.
func (t *Tree[T]) rebalanceAfterInsert(h Handle) {
	// Reaching the sentinel with its balance at -1 and flipping it to 0
	// means the whole tree grew by a level.
	t.n(t.sentinel).balance = -1
	child := h
	for {
		s := t.n(child).parent
		sn := t.n(s)
		a := int8(1)
		if sn.left == child {
			a = -1
		}
		switch sn.balance {
		case 0:
			sn.balance = a
			child = s
			continue
		case -a:
			sn.balance = 0
			if t.n(t.sentinel).balance == 0 {
				t.depth++
			}
		default:
			t.rebalance(s)
		}
		return
	}
}

// Remove unlinks the node h from the tree. The node must be linked into
// this tree. The node is left detached and may be freed or reinserted.
func (t *Tree[T]) Remove(h Handle) {
	if !t.arena.Linked(h) || h == t.sentinel {
		panic("abstract: removing a node which is not linked")
	}
	if invariants && !t.contains(h) {
		panic("abstract: removing a node of another tree")
	}
	if t.restartKey == h {
		t.restartKey = t.Predecessor(h)
	}
	if Handle(t.hint.Load()) == h {
		t.hint.Store(uint32(t.Predecessor(h)))
	}
	t.deleteCount++
	t.ordered = Nil

	t.unlink(h)
	t.count--
	n := t.n(h)
	n.parent, n.left, n.right, n.balance = Nil, Nil, Nil, 0
	t.checkAfterMutation()
}

// unlink removes d. If d has two children, the node adjacent to it in order
// on the side of its taller subtree is removed from its position instead and
// then takes d's place, so the structural removal is always of a node with
// at most one child.
func (t *Tree[T]) unlink(d Handle) {
	dn := t.n(d)
	easy := d
	switch {
	case dn.left == Nil || dn.right == Nil:
	case dn.balance >= 0:
		easy = t.leftmost(dn.right)
	default:
		easy = t.rightmost(dn.left)
	}

	en := t.n(easy)
	child := en.left
	if child == Nil {
		child = en.right
	}
	p := en.parent
	pn := t.n(p)
	a := int8(-1)
	if pn.left == easy {
		pn.left = child
	} else {
		pn.right = child
		a = 1
	}
	if child != Nil {
		t.n(child).parent = p
	}

	// Reaching the sentinel with its balance at 0 and flipping it means the
	// whole tree lost a level.
	t.n(t.sentinel).balance = 0
	for {
		pn := t.n(p)
		if pn.balance == a {
			pn.balance = 0
		} else if pn.balance == 0 {
			pn.balance = -a
			if t.n(t.sentinel).balance != 0 {
				t.depth--
			}
			break
		} else {
			if t.rebalance(p) {
				break
			}
			// The rotation moved a child of p above it.
			p = pn.parent
		}
		a = -1
		if t.isRightChild(p) {
			a = 1
		}
		p = t.n(p).parent
	}

	if easy != d {
		en.parent, en.left, en.right, en.balance = dn.parent, dn.left, dn.right, dn.balance
		pn := t.n(en.parent)
		if pn.left == d {
			pn.left = easy
		} else {
			pn.right = easy
		}
		if en.left != Nil {
			t.n(en.left).parent = easy
		}
		if en.right != Nil {
			t.n(en.right).parent = easy
		}
	}
}

func (t *Tree[T]) isRightChild(h Handle) bool {
	return t.n(t.n(h).parent).right == h
}

func (t *Tree[T]) contains(h Handle) bool {
	for p := h; ; {
		next := t.n(p).parent
		if next == p {
			return p == t.sentinel
		}
		p = next
	}
}

func (t *Tree[T]) checkAfterMutation() {
	if invariants {
		if !PopulationInBounds(t.Len(), t.depth) {
			panic(fmt.Sprintf("abstract: %d elements cannot form a tree of depth %d", t.count, t.depth))
		}
	}
	if t.cfg.Verify {
		if err := t.Verify(); err != nil {
			panic(err)
		}
	}
}
