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

import "math"

// Handle identifies a node slot in an Arena. Handles stay valid until the
// node is freed; they are not invalidated by growth of the arena.
type Handle uint32

// Nil is the Handle which refers to no node. It is never handed out by
// Alloc.
const Nil Handle = 0

// maxHandle bounds the number of slots an arena may hand out.
const maxHandle = math.MaxUint32 - 1

type node[T any] struct {
	parent, left, right Handle
	balance             int8
	live                bool
	item                T
}

// Arena owns the storage of the nodes of one or more trees. The caller
// allocates a node, fills in its item, links it into a tree and, after
// removing it, frees it. Nodes which are freed are recycled by later
// allocations.
//
// Pointers returned by Item are only valid until the next call to Alloc.
type Arena[T any] struct {
	nodes []node[T]
	free  []Handle
	hib   *hibernation
}

// NewArena constructs an Arena with room for capacity nodes before it needs
// to grow.
func NewArena[T any](capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	// Slot zero backs Nil and is never handed out.
	return &Arena[T]{nodes: make([]node[T], 1, capacity+1)}
}

// Alloc returns a fresh detached node holding item.
func (a *Arena[T]) Alloc(item T) Handle {
	a.assertAwake()
	var h Handle
	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if len(a.nodes) > maxHandle {
			panic("abstract: arena exhausted")
		}
		a.nodes = append(a.nodes, node[T]{})
		h = Handle(len(a.nodes) - 1)
	}
	a.nodes[h] = node[T]{live: true, item: item}
	return h
}

// Free releases a detached node. It panics if the node is still linked into
// a tree or has already been freed.
func (a *Arena[T]) Free(h Handle) {
	a.assertAwake()
	n := a.node(h)
	if n.parent != Nil {
		panic("abstract: freeing a linked node")
	}
	*n = node[T]{}
	a.free = append(a.free, h)
}

// Item returns a pointer to the item stored in the node. The pointer must
// not be retained across calls to Alloc.
func (a *Arena[T]) Item(h Handle) *T {
	return &a.node(h).item
}

// Linked returns true if the node is currently part of a tree.
func (a *Arena[T]) Linked(h Handle) bool {
	return a.node(h).parent != Nil
}

// Len returns the number of live nodes, sentinels included.
func (a *Arena[T]) Len() int {
	if a.hib != nil {
		return a.hib.live
	}
	return len(a.nodes) - 1 - len(a.free)
}

func (a *Arena[T]) node(h Handle) *node[T] {
	if h == Nil || int(h) >= len(a.nodes) {
		panic("abstract: invalid handle")
	}
	n := &a.nodes[h]
	if !n.live {
		panic("abstract: use of a freed node")
	}
	return n
}

func (a *Arena[T]) assertAwake() {
	if a.hib != nil {
		panic("abstract: arena is hibernating")
	}
}
