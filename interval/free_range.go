package interval

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Direction selects the end of the window from which FindFreeRange scans.
type Direction int8

const (
	// LowestFit returns the lowest suitable start.
	LowestFit Direction = iota
	// HighestFit returns the highest suitable start.
	HighestFit
)

func (d Direction) String() string {
	switch d {
	case LowestFit:
		return "LowestFit"
	case HighestFit:
		return "HighestFit"
	default:
		return fmt.Sprintf("Direction(%d)", int8(d))
	}
}

// FindFreeRange finds an unused range of size keys, starting at a multiple
// of align, lying entirely within bounds. It returns the start of the range
// and the node holding the closest range below it, which is Nil when no
// range precedes it.
//
// An align of zero is treated as one; other alignments must be powers of
// two. A gap which fits exactly is used. The result is not reserved: the
// caller inserts a node covering it while still holding whatever lock
// protected the search.
func (t *Table[K, V]) FindFreeRange(
	size, align K, bounds Range[K], dir Direction,
) (start K, prev Node, err error) {
	if align == 0 {
		align = 1
	}
	if size == 0 || align&(align-1) != 0 || !bounds.valid() {
		return 0, Nil, fmt.Errorf(
			"interval: free range of size %d aligned to %d within %v: %w",
			size, align, bounds, ErrInvalidRange)
	}
	var ok bool
	switch dir {
	case LowestFit:
		start, prev, ok = t.findLowest(size, align, bounds)
	case HighestFit:
		start, prev, ok = t.findHighest(size, align, bounds)
	default:
		return 0, Nil, fmt.Errorf("interval: unknown direction %v: %w", dir, ErrInvalidRange)
	}
	if !ok {
		return 0, Nil, fmt.Errorf(
			"interval: free range of size %d aligned to %d within %v: %w",
			size, align, bounds, ErrNoFreeRange)
	}
	return start, prev, nil
}

// findLowest scans upward from the range at or below bounds.Low, checking
// each gap between consecutive ranges, and the gap after the last, for an
// aligned start with room for size keys.
func (t *Table[K, V]) findLowest(size, align K, bounds Range[K]) (K, Node, bool) {
	from := bounds.Low
	prev := t.floor(bounds.Low)
	n := t.First()
	if prev != Nil {
		r := t.Range(prev)
		if r.High >= bounds.High {
			return 0, Nil, false
		}
		if r.High >= from {
			from = r.High + 1
		}
		n = t.Next(prev)
	}
	for {
		limit := bounds.High
		// Every range after prev starts above bounds.Low, so Low-1 cannot
		// wrap.
		if n != Nil {
			if low := t.Range(n).Low; low-1 < limit {
				limit = low - 1
			}
		}
		if from <= limit {
			if s, ok := alignUp(from, align); ok && s <= limit && limit-s >= size-1 {
				return s, prev, true
			}
		}
		if n == Nil {
			return 0, Nil, false
		}
		r := t.Range(n)
		if r.High >= bounds.High {
			return 0, Nil, false
		}
		from = r.High + 1
		prev, n = n, t.Next(n)
	}
}

// findHighest scans downward from the range at or below bounds.High,
// checking the gap above each range for an aligned start with room for size
// keys below the next range or the top of the window.
func (t *Table[K, V]) findHighest(size, align K, bounds Range[K]) (K, Node, bool) {
	limit := bounds.High
	n := t.floor(bounds.High)
	for {
		from := bounds.Low
		var above bool
		if n != Nil {
			r := t.Range(n)
			switch {
			case r.High >= limit:
				above = true
			case r.High >= from:
				from = r.High + 1
			}
		}
		if !above && from <= limit && limit-from >= size-1 {
			if s := alignDown(limit-(size-1), align); s >= from {
				return s, n, true
			}
		}
		if n == Nil {
			return 0, Nil, false
		}
		low := t.Range(n).Low
		if low <= bounds.Low {
			return 0, Nil, false
		}
		limit = low - 1
		n = t.Prev(n)
	}
}

func alignUp[K constraints.Unsigned](k, align K) (K, bool) {
	s := (k + align - 1) &^ (align - 1)
	return s, s >= k
}

func alignDown[K constraints.Unsigned](k, align K) K {
	return k &^ (align - 1)
}
