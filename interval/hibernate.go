package interval

import (
	"github.com/ajwerner/avltable/internal/abstract"
	"golang.org/x/exp/constraints"
)

// entryCodec stores the bounds of each range as compressed columns and
// keeps the values aside.
type entryCodec[K constraints.Unsigned, V any] struct{}

func (entryCodec[K, V]) Width() int { return 2 }

func (entryCodec[K, V]) Encode(e *entry[K, V], cols []uint64) V {
	cols[0], cols[1] = uint64(e.r.Low), uint64(e.r.High)
	return e.v
}

func (entryCodec[K, V]) Decode(cols []uint64, v V) entry[K, V] {
	return entry[K, V]{r: Range[K]{Low: K(cols[0]), High: K(cols[1])}, v: v}
}

// Hibernate compresses the table's nodes. The table must not be used until
// Boot is called. Tables holding many ranges which are rarely consulted can
// be parked this way.
func (t *Table[K, V]) Hibernate() error {
	return abstract.Hibernate[entry[K, V], V](t.arena, entryCodec[K, V]{})
}

// Boot restores a table compressed by Hibernate.
func (t *Table[K, V]) Boot() error {
	return abstract.Boot[entry[K, V], V](t.arena, entryCodec[K, V]{})
}

// Hibernating returns true between Hibernate and Boot.
func (t *Table[K, V]) Hibernating() bool { return t.arena.Hibernating() }
