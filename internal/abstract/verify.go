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
	"strings"
)

// ErrCorrupt wraps every violation reported by Verify.
var ErrCorrupt = errors.New("corrupt tree")

// maxDepth exceeds the depth of any tree with at most MaxElements elements.
const maxDepth = 48

var bestCaseFill, worstCaseFill [maxDepth + 1]uint64

func init() {
	for d := 1; d <= maxDepth; d++ {
		bestCaseFill[d] = 1<<d - 1
		worstCaseFill[d] = 1 + worstCaseFill[d-1]
		if d >= 2 {
			worstCaseFill[d] += worstCaseFill[d-2]
		}
	}
}

// BestCaseFill returns the largest number of elements a tree of the given
// depth can hold: a complete tree.
func BestCaseFill(depth int) uint64 {
	if depth < 0 || depth > maxDepth {
		panic(fmt.Sprintf("abstract: depth %d out of range", depth))
	}
	return bestCaseFill[depth]
}

// WorstCaseFill returns the smallest number of elements a balanced tree of
// the given depth can hold. Each level of the sparsest tree joins the
// sparsest trees of the two levels below it.
func WorstCaseFill(depth int) uint64 {
	if depth < 0 || depth > maxDepth {
		panic(fmt.Sprintf("abstract: depth %d out of range", depth))
	}
	return worstCaseFill[depth]
}

// PopulationInBounds returns true if count elements can form a balanced
// tree of the given depth.
func PopulationInBounds(count, depth int) bool {
	if depth < 0 || depth > maxDepth {
		return false
	}
	c := uint64(count)
	return worstCaseFill[depth] <= c && c <= bestCaseFill[depth]
}

// Verify checks every structural property of the tree: parent links, the
// order of items, balance factors against the actual heights, the element
// count, the recorded depth and the sentinel's shape. It walks the whole
// tree and is meant for tests and debugging.
func (t *Tree[T]) Verify() error {
	s := t.n(t.sentinel)
	if s.parent != t.sentinel || s.left != Nil {
		return fmt.Errorf("%w: sentinel %d has parent %d and left child %d",
			ErrCorrupt, t.sentinel, s.parent, s.left)
	}
	v := verifier[T]{t: t}
	height := 0
	if s.right != Nil {
		if p := t.n(s.right).parent; p != t.sentinel {
			return fmt.Errorf("%w: root %d has parent %d", ErrCorrupt, s.right, p)
		}
		var err error
		if height, err = v.check(s.right); err != nil {
			return err
		}
	}
	if v.count != int(t.count) {
		return fmt.Errorf("%w: counted %d elements, recorded %d", ErrCorrupt, v.count, t.count)
	}
	if height != t.depth {
		return fmt.Errorf("%w: height %d, recorded depth %d", ErrCorrupt, height, t.depth)
	}
	if !PopulationInBounds(v.count, height) {
		return fmt.Errorf("%w: %d elements cannot form a tree of depth %d", ErrCorrupt, v.count, height)
	}
	return nil
}

type verifier[T any] struct {
	t     *Tree[T]
	count int
	prev  Handle
}

// check verifies the subtree rooted at h in order and returns its height.
func (v *verifier[T]) check(h Handle) (int, error) {
	n := v.t.n(h)
	var lh, rh int
	var err error
	if n.left != Nil {
		if p := v.t.n(n.left).parent; p != h {
			return 0, fmt.Errorf("%w: node %d has parent %d, want %d", ErrCorrupt, n.left, p, h)
		}
		if lh, err = v.check(n.left); err != nil {
			return 0, err
		}
	}
	if v.prev != Nil && v.t.cmp(v.t.n(v.prev).item, n.item) >= 0 {
		return 0, fmt.Errorf("%w: node %d does not follow node %d", ErrCorrupt, h, v.prev)
	}
	v.prev = h
	v.count++
	if n.right != Nil {
		if p := v.t.n(n.right).parent; p != h {
			return 0, fmt.Errorf("%w: node %d has parent %d, want %d", ErrCorrupt, n.right, p, h)
		}
		if rh, err = v.check(n.right); err != nil {
			return 0, err
		}
	}
	if want := rh - lh; int(n.balance) != want || want < -1 || want > 1 {
		return 0, fmt.Errorf("%w: node %d has balance %d, subtree heights %d and %d",
			ErrCorrupt, h, n.balance, lh, rh)
	}
	if lh > rh {
		return lh + 1, nil
	}
	return rh + 1, nil
}

// String returns the tree in a parenthesized form: each node is printed as
// its left subtree, its item and its right subtree, with empty subtrees
// omitted.
func (t *Tree[T]) String() string {
	var sb strings.Builder
	if r := t.Root(); r != Nil {
		t.writeString(&sb, r)
	}
	return sb.String()
}

func (t *Tree[T]) writeString(sb *strings.Builder, h Handle) {
	n := t.n(h)
	if n.left != Nil {
		sb.WriteByte('(')
		t.writeString(sb, n.left)
		sb.WriteByte(')')
	}
	fmt.Fprint(sb, n.item)
	if n.right != Nil {
		sb.WriteByte('(')
		t.writeString(sb, n.right)
		sb.WriteByte(')')
	}
}
