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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type intCodec struct{}

func (intCodec) Width() int { return 1 }

func (intCodec) Encode(item *int, cols []uint64) struct{} {
	cols[0] = uint64(*item)
	return struct{}{}
}

func (intCodec) Decode(cols []uint64, _ struct{}) int { return int(cols[0]) }

func TestHibernateBoot(t *testing.T) {
	tree := newIntTree(t)
	const N = 1000
	for _, k := range rand.Perm(N) {
		tree.insert(t, k)
	}
	var freed Handle
	for k := 0; k < N; k += 3 {
		freed = tree.handles[k]
		tree.remove(t, k)
	}
	want := tree.keys()
	live := tree.arena.Len()

	require.NoError(t, Hibernate[int, struct{}](tree.arena, intCodec{}))
	require.True(t, tree.arena.Hibernating())
	require.Equal(t, live, tree.arena.Len())
	require.Panics(t, func() { tree.arena.Alloc(1) })
	require.ErrorIs(t, Hibernate[int, struct{}](tree.arena, intCodec{}), ErrHibernating)

	require.NoError(t, Boot[int, struct{}](tree.arena, intCodec{}))
	require.False(t, tree.arena.Hibernating())
	require.ErrorIs(t, Boot[int, struct{}](tree.arena, intCodec{}), ErrAwake)
	require.NoError(t, tree.Verify())
	require.Equal(t, want, tree.keys())
	require.Equal(t, live, tree.arena.Len())

	// The free list survives, most recently freed first.
	require.Equal(t, freed, tree.arena.Alloc(-1))
}

func TestHibernateEmptyArena(t *testing.T) {
	a := NewArena[int](0)
	require.NoError(t, Hibernate[int, struct{}](a, intCodec{}))
	require.NoError(t, Boot[int, struct{}](a, intCodec{}))
	require.Equal(t, 0, a.Len())
	require.Equal(t, Handle(1), a.Alloc(7))
}

func TestCompressRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 4096} {
		in := make([]uint32, n)
		for i := range in {
			in[i] = uint32(rand.Intn(16))
		}
		block, err := compressUint32s(in)
		require.NoError(t, err)
		out := make([]uint32, n)
		require.NoError(t, decompressUint32s(block, out))
		require.Equal(t, in, out)
	}
	require.Error(t, decompressUint32s(nil, make([]uint32, 1)))
	require.Error(t, decompressUint32s([]byte{blockRaw, 1}, make([]uint32, 1)))
}
