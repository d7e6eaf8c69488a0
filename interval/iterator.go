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

package interval

import (
	"github.com/ajwerner/avltable/internal/abstract"
	"golang.org/x/exp/constraints"
)

// Iterator is responsible for search and traversal within a Table.
//
// Because ranges in the table never overlap, the ranges overlapping any
// query range are consecutive in order. An overlap scan therefore seeks to
// the first of them and stops at the first range starting beyond the
// query, with no per-subtree bounds to consult.
type Iterator[K constraints.Unsigned, V any] struct {
	t  *Table[K, V]
	it abstract.Iterator[entry[K, V]]

	bounds Range[K]
	set    bool
}

// MakeIter constructs an unpositioned Iterator.
func (t *Table[K, V]) MakeIter() Iterator[K, V] {
	return Iterator[K, V]{t: t, it: t.t.MakeIter()}
}

// SeekGE positions the iterator at the first range which contains k or lies
// above it.
func (it *Iterator[K, V]) SeekGE(k K) {
	it.set = false
	it.seekGE(k)
}

func (it *Iterator[K, V]) seekGE(k K) {
	n := it.t.floor(k)
	if n == Nil {
		it.it.First()
		return
	}
	it.it.SeekTo(n)
	if it.t.Range(n).High < k {
		it.it.Next()
	}
}

// FirstOverlap positions the iterator at the lowest range overlapping
// bounds. NextOverlap continues the scan.
func (it *Iterator[K, V]) FirstOverlap(bounds Range[K]) {
	it.bounds, it.set = bounds, true
	it.seekGE(bounds.Low)
	it.constrain()
}

// NextOverlap advances to the next range overlapping the bounds passed to
// FirstOverlap.
func (it *Iterator[K, V]) NextOverlap() {
	if !it.set {
		panic("interval: NextOverlap called without FirstOverlap")
	}
	it.it.Next()
	it.constrain()
}

func (it *Iterator[K, V]) constrain() {
	if it.it.Valid() && !it.Range().Overlaps(it.bounds) {
		it.it.Reset()
	}
}

func (it *Iterator[K, V]) First() {
	it.set = false
	it.it.First()
}

func (it *Iterator[K, V]) Last() {
	it.set = false
	it.it.Last()
}

func (it *Iterator[K, V]) Next() { it.it.Next() }

func (it *Iterator[K, V]) Prev() { it.it.Prev() }

func (it *Iterator[K, V]) Valid() bool { return it.it.Valid() }

// Node returns the node at the current position.
func (it *Iterator[K, V]) Node() Node { return it.it.Node() }

// Range returns the range at the current position.
func (it *Iterator[K, V]) Range() Range[K] { return it.t.Range(it.it.Node()) }

// Value returns the value at the current position.
func (it *Iterator[K, V]) Value() V { return it.t.Value(it.it.Node()) }
