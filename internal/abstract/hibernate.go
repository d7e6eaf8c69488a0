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

	"golang.org/x/sync/errgroup"
)

// ErrHibernating is returned when an arena is hibernated twice.
var ErrHibernating = errors.New("arena is already hibernating")

// ErrAwake is returned when an arena which is not hibernating is booted.
var ErrAwake = errors.New("arena is not hibernating")

// Codec splits an item into fixed-width integer columns, which are
// compressed while the arena hibernates, and a residue which is kept as is.
type Codec[T, R any] interface {
	// Width is the number of columns produced by Encode.
	Width() int
	Encode(item *T, cols []uint64) R
	Decode(cols []uint64, residue R) T
}

const (
	colParent = iota
	colLeft
	colRight
	colState
	numLinkCols
)

type hibernation struct {
	slots, live int
	links       [numLinkCols][]byte
	free        []byte
	numFree     int
	keys        [][]byte
	residue     any
}

// Hibernate compresses the arena into column blocks. Until Boot is called
// the arena and every tree using it must not be accessed.
//
// The node links are stored deinterleaved, one column per field, which
// compresses far better than the row layout.
func Hibernate[T, R any](a *Arena[T], c Codec[T, R]) error {
	if a.hib != nil {
		return ErrHibernating
	}
	slots := len(a.nodes)
	width := c.Width()
	var links [numLinkCols][]uint32
	for i := range links {
		links[i] = make([]uint32, slots)
	}
	keys := make([][]uint64, width)
	for i := range keys {
		keys[i] = make([]uint64, slots)
	}
	residue := make([]R, slots)
	row := make([]uint64, width)
	for i := 1; i < slots; i++ {
		n := &a.nodes[i]
		if !n.live {
			continue
		}
		links[colParent][i] = uint32(n.parent)
		links[colLeft][i] = uint32(n.left)
		links[colRight][i] = uint32(n.right)
		links[colState][i] = packState(n.balance, n.live)
		residue[i] = c.Encode(&n.item, row)
		for j, v := range row {
			keys[j][i] = v
		}
	}
	free := make([]uint32, len(a.free))
	for i, h := range a.free {
		free[i] = uint32(h)
	}

	h := &hibernation{
		slots:   slots,
		live:    a.Len(),
		numFree: len(free),
		keys:    make([][]byte, width),
		residue: residue,
	}
	var g errgroup.Group
	for i := range links {
		g.Go(func() (err error) {
			h.links[i], err = compressUint32s(links[i])
			return err
		})
	}
	for i := range keys {
		g.Go(func() (err error) {
			h.keys[i], err = compressUint64s(keys[i])
			return err
		})
	}
	g.Go(func() (err error) {
		h.free, err = compressUint32s(free)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	a.nodes, a.free, a.hib = nil, nil, h
	return nil
}

// Boot restores an arena compressed by Hibernate. The codec must match the
// one passed to Hibernate.
func Boot[T, R any](a *Arena[T], c Codec[T, R]) error {
	h := a.hib
	if h == nil {
		return ErrAwake
	}
	width := c.Width()
	var links [numLinkCols][]uint32
	keys := make([][]uint64, width)
	free := make([]uint32, h.numFree)
	var g errgroup.Group
	for i := range links {
		links[i] = make([]uint32, h.slots)
		g.Go(func() error { return decompressUint32s(h.links[i], links[i]) })
	}
	for i := range keys {
		keys[i] = make([]uint64, h.slots)
		g.Go(func() error { return decompressUint64s(h.keys[i], keys[i]) })
	}
	g.Go(func() error { return decompressUint32s(h.free, free) })
	if err := g.Wait(); err != nil {
		return err
	}

	residue := h.residue.([]R)
	nodes := make([]node[T], h.slots)
	row := make([]uint64, width)
	for i := 1; i < h.slots; i++ {
		balance, live := unpackState(links[colState][i])
		if !live {
			continue
		}
		for j := range row {
			row[j] = keys[j][i]
		}
		nodes[i] = node[T]{
			parent:  Handle(links[colParent][i]),
			left:    Handle(links[colLeft][i]),
			right:   Handle(links[colRight][i]),
			balance: balance,
			live:    true,
			item:    c.Decode(row, residue[i]),
		}
	}
	a.free = make([]Handle, len(free))
	for i, f := range free {
		a.free[i] = Handle(f)
	}
	a.nodes, a.hib = nodes, nil
	return nil
}

// Hibernating returns true between Hibernate and Boot.
func (a *Arena[T]) Hibernating() bool { return a.hib != nil }

func packState(balance int8, live bool) uint32 {
	s := uint32(balance + 1)
	if live {
		s |= 1 << 2
	}
	return s
}

func unpackState(s uint32) (balance int8, live bool) {
	return int8(s&3) - 1, s&(1<<2) != 0
}
