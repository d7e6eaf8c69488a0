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

// Enumerate walks the tree in order using a cursor kept by the tree. With
// restart it returns the first node, otherwise the node following the one
// returned by the previous call; Nil marks the end. Removing the node at the
// cursor moves the cursor to its predecessor, so a walk which removes what
// it visits keeps going.
func (t *Tree[T]) Enumerate(restart bool) Handle {
	if restart {
		t.restartKey = Nil
	}
	return t.EnumerateFrom(&t.restartKey)
}

// EnumerateFrom is Enumerate with a caller-held cursor. A Nil cursor starts
// at the first node. The cursor is advanced to the returned node; it is left
// in place at the end.
//
// Unlike the cursor used by Enumerate, the tree does not fix up caller-held
// cursors on removal; the node at the cursor must not be removed between
// calls.
func (t *Tree[T]) EnumerateFrom(cursor *Handle) Handle {
	var h Handle
	if *cursor == Nil {
		h = t.First()
	} else {
		h = t.Successor(*cursor)
	}
	if h != Nil {
		*cursor = h
	}
	return h
}

// MatchResult is returned by the match function of EnumerateLikeADirectory.
type MatchResult int8

const (
	// Match reports that the node should be returned.
	Match MatchResult = iota
	// NoMatch reports that the node should be skipped.
	NoMatch
	// NoMoreMatches ends the enumeration.
	NoMoreMatches
)

// DirCursor is the resumable position of EnumerateLikeADirectory. The zero
// value starts a fresh enumeration.
type DirCursor struct {
	Node        Handle
	deleteCount uint64
}

// EnumerateLikeADirectory returns the next node accepted by match, in the
// manner of a directory listing which must survive concurrent removals
// between calls.
//
// The enumeration starts at the node equal to the key described by probe,
// or at the first node following it if there is none. With next it starts
// after that node instead; next is ignored when the key is absent, since the
// following node has not been returned yet. While the cursor is valid, which
// it stops being when any node is removed from the tree, the enumeration
// resumes from the cursor instead of searching again.
//
// Nodes for which match returns NoMatch are skipped. The enumeration stops
// with Nil at the end of the tree or when match returns NoMoreMatches. A nil
// match accepts every node.
func (t *Tree[T]) EnumerateLikeADirectory(
	probe func(T) int, match func(T) MatchResult, next bool, cursor *DirCursor,
) Handle {
	if t.count == 0 {
		*cursor = DirCursor{}
		return Nil
	}
	h := cursor.Node
	if cursor.deleteCount != t.deleteCount {
		h = Nil
	}
	if h == Nil {
		r := t.Search(probe)
		h = r.Node
		if r.Kind != Found {
			next = false
			if r.Kind == InsertAsRight {
				h = t.Successor(h)
			}
		}
	}
	if next && h != Nil {
		h = t.Successor(h)
	}
	status := NoMatch
	for ; h != Nil; h = t.Successor(h) {
		if match == nil {
			status = Match
		} else {
			status = match(t.n(h).item)
		}
		if status != NoMatch {
			break
		}
	}
	if h == Nil {
		return Nil
	}
	cursor.Node, cursor.deleteCount = h, t.deleteCount
	if status != Match {
		return Nil
	}
	return h
}

// Nth returns the node at zero-based position i in order, or Nil if i is
// out of range.
//
// The last position found is cached, and the walk to i starts from whichever
// of the cache, the first node and the last node is closest. Sequential
// access is therefore cheap. The cache is dropped by any mutation. Nth
// updates the cache and so needs the same exclusive access as a mutation.
func (t *Tree[T]) Nth(i int) Handle {
	if i < 0 || i >= int(t.count) {
		return Nil
	}
	cur, at := t.ordered, t.whichOrdered
	if cur == Nil {
		cur, at = t.First(), 0
	}
	switch {
	case i < at:
		if i >= at/2 {
			cur = t.walk(cur, i-at)
		} else {
			cur = t.walk(t.First(), i)
		}
	case i > at:
		forward := i - at
		backward := int(t.count) - (i + 1)
		if forward <= backward+1 {
			cur = t.walk(cur, forward)
		} else {
			cur = t.walk(t.Last(), -backward)
		}
	}
	t.ordered, t.whichOrdered = cur, i
	return cur
}

// walk steps d nodes forward, or backward for negative d, from h.
func (t *Tree[T]) walk(h Handle, d int) Handle {
	for ; d > 0; d-- {
		h = t.Successor(h)
	}
	for ; d < 0; d++ {
		h = t.Predecessor(h)
	}
	return h
}

// Hint returns the node remembered by SetHint, or Nil. A hinted node which
// is removed hands the hint to its predecessor.
func (t *Tree[T]) Hint() Handle { return Handle(t.hint.Load()) }

// SetHint remembers h as a likely target of the next lookup. It is safe to
// call with only shared access to the tree.
func (t *Tree[T]) SetHint(h Handle) { t.hint.Store(uint32(h)) }
