// Package orderstat provides a sorted set with positional access.
package orderstat

import "github.com/ajwerner/avltable/internal/abstract"

// Item is a type which knows how to order itself.
type Item[T any] interface {
	abstract.Item[T]
}

// OrderStatTree is a set of items which can be addressed by rank.
//
// Rank lookups walk from the most recently reached rank, or from whichever
// end of the set is closer, so scanning ranks in sequence costs amortized
// constant time per step while a random rank costs time linear in the
// distance walked.
type OrderStatTree[T Item[T]] struct {
	arena *abstract.Arena[T]
	t     abstract.Tree[T]
}

func MakeOrderStatTree[T Item[T]]() *OrderStatTree[T] {
	ost := &OrderStatTree[T]{arena: abstract.NewArena[T](0)}
	ost.t.Init(ost.arena, abstract.LessCompare[T], abstract.Config{})
	return ost
}

// Set adds v to the set, replacing an equal item.
func (t *OrderStatTree[T]) Set(v T) {
	r := t.t.Search(func(x T) int { return abstract.LessCompare(v, x) })
	if r.Kind == abstract.Found {
		*t.arena.Item(r.Node) = v
		return
	}
	n := t.arena.Alloc(v)
	if err := t.t.InsertAt(n, r); err != nil {
		t.arena.Free(n)
		panic(err)
	}
}

// Remove removes the item equal to v.
func (t *OrderStatTree[T]) Remove(v T) (removed bool) {
	n, ok := t.t.Lookup(v)
	if !ok {
		return false
	}
	t.t.Remove(n)
	t.arena.Free(n)
	return true
}

// Len returns the number of items in the set.
func (t *OrderStatTree[T]) Len() int { return t.t.Len() }

type OrderStatIterator[T Item[T]] struct {
	t  *abstract.Tree[T]
	it abstract.Iterator[T]
}

func (t *OrderStatTree[T]) MakeIter() OrderStatIterator[T] {
	return OrderStatIterator[T]{t: &t.t, it: t.t.MakeIter()}
}

// Nth positions the iterator at the item of rank i, counting from zero. The
// iterator is invalid if i is out of range.
func (it *OrderStatIterator[T]) Nth(i int) {
	if n := it.t.Nth(i); n != abstract.Nil {
		it.it.SeekTo(n)
	} else {
		it.it.Reset()
	}
}

func (it *OrderStatIterator[T]) SeekGE(v T) { it.it.SeekGE(v) }
func (it *OrderStatIterator[T]) First()     { it.it.First() }
func (it *OrderStatIterator[T]) Last()      { it.it.Last() }
func (it *OrderStatIterator[T]) Next()      { it.it.Next() }
func (it *OrderStatIterator[T]) Prev()      { it.it.Prev() }
func (it *OrderStatIterator[T]) Valid() bool {
	return it.it.Valid()
}
func (it *OrderStatIterator[T]) Cur() T { return it.it.Cur() }
