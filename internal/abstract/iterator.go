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

// First returns the smallest node or Nil if the tree is empty.
func (t *Tree[T]) First() Handle {
	if r := t.Root(); r != Nil {
		return t.leftmost(r)
	}
	return Nil
}

// Last returns the largest node or Nil if the tree is empty.
func (t *Tree[T]) Last() Handle {
	if r := t.Root(); r != Nil {
		return t.rightmost(r)
	}
	return Nil
}

// Successor returns the node following h in order, or Nil.
func (t *Tree[T]) Successor(h Handle) Handle {
	n := t.n(h)
	if n.right != Nil {
		return t.leftmost(n.right)
	}
	// Climb while h is a right child; the parent reached next follows h.
	for {
		p := n.parent
		pn := t.n(p)
		if pn.right != h {
			if p == t.sentinel {
				return Nil
			}
			return p
		}
		h, n = p, pn
	}
}

// Predecessor returns the node preceding h in order, or Nil.
func (t *Tree[T]) Predecessor(h Handle) Handle {
	n := t.n(h)
	if n.left != Nil {
		return t.rightmost(n.left)
	}
	for {
		p := n.parent
		pn := t.n(p)
		if p == t.sentinel {
			return Nil
		}
		if pn.left != h {
			return p
		}
		h, n = p, pn
	}
}

func (t *Tree[T]) leftmost(h Handle) Handle {
	for l := t.n(h).left; l != Nil; l = t.n(h).left {
		h = l
	}
	return h
}

func (t *Tree[T]) rightmost(h Handle) Handle {
	for r := t.n(h).right; r != Nil; r = t.n(h).right {
		h = r
	}
	return h
}

// Iterator is responsible for search and traversal within a Tree. It holds
// no state beyond its position, so removing any node other than the one it
// is positioned at leaves it usable.
type Iterator[T any] struct {
	t   *Tree[T]
	cur Handle
}

// MakeIter constructs an unpositioned Iterator.
func (t *Tree[T]) MakeIter() Iterator[T] {
	return Iterator[T]{t: t}
}

// Reset marks the iterator as invalid.
func (i *Iterator[T]) Reset() { i.cur = Nil }

// SeekGE seeks to the first item greater-than or equal to the provided
// item.
func (i *Iterator[T]) SeekGE(key T) {
	r := i.t.Search(i.t.probe(key))
	i.cur = r.Node
	if r.Kind == InsertAsRight {
		i.cur = i.t.Successor(r.Node)
	}
}

// SeekLT seeks to the last item less-than the provided item.
func (i *Iterator[T]) SeekLT(key T) {
	r := i.t.Search(i.t.probe(key))
	i.cur = r.Node
	if r.Kind == Found || r.Kind == InsertAsLeft {
		i.cur = i.t.Predecessor(r.Node)
	}
}

// SeekTo positions the iterator at h, which must be linked into the tree.
func (i *Iterator[T]) SeekTo(h Handle) { i.cur = h }

// First seeks to the first item in the Tree.
func (i *Iterator[T]) First() { i.cur = i.t.First() }

// Last seeks to the last item in the Tree.
func (i *Iterator[T]) Last() { i.cur = i.t.Last() }

// Next positions the Iterator to the item immediately following
// its current position.
func (i *Iterator[T]) Next() {
	if i.cur != Nil {
		i.cur = i.t.Successor(i.cur)
	}
}

// Prev positions the Iterator to the item immediately preceding
// its current position.
func (i *Iterator[T]) Prev() {
	if i.cur != Nil {
		i.cur = i.t.Predecessor(i.cur)
	}
}

// Valid returns whether the Iterator is positioned at a valid position.
func (i *Iterator[T]) Valid() bool { return i.cur != Nil }

// Node returns the handle of the current position.
func (i *Iterator[T]) Node() Handle { return i.cur }

// Cur returns the item at the Iterator's current position. It is illegal
// to call Cur if the Iterator is not valid.
func (i *Iterator[T]) Cur() T { return i.t.Item(i.cur) }
