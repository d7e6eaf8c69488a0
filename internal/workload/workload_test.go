package workload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajwerner/avltable/internal/addrspace"
	"github.com/ajwerner/avltable/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demo = `
name: demo
steps:
  - {op: reserve, name: heap, size: 1MiB, protection: rw}
  - {op: reserve, name: stack, size: 64KiB, top_down: true}
  - {op: reserve, name: clash, size: 4KiB, base: 0x10000, expect_error: true}
  - {op: query, addr: 0x10010}
  - {op: query, addr: 0x1000, expect_error: true}
  - {op: protect, region: heap, protection: r}
  - {op: park}
  - {op: reserve, size: 1, expect_error: true}
  - {op: unpark}
  - {op: release, region: heap}
  - {op: release, base: 0x10000, expect_error: true}
  - {op: verify}
`

func newSpace(t *testing.T) *addrspace.AddressSpace {
	as, err := addrspace.New(addrspace.Limits{
		Low: 0x10000, High: 0xffffffff, PageSize: 4096, Granularity: 0x10000,
	}, addrspace.WithVerification())
	require.NoError(t, err)
	return as
}

func TestRun(t *testing.T) {
	w, err := Decode(strings.NewReader(demo))
	require.NoError(t, err)
	require.Equal(t, "demo", w.Name)
	require.Len(t, w.Steps, 12)

	as := newSpace(t)
	rep, err := Run(context.Background(), as, w)
	require.NoError(t, err)
	require.Len(t, rep.Results, 12)
	assert.Equal(t, 0, rep.Unexpected())

	heap := rep.Results[0].Region
	require.NotNil(t, heap)
	assert.Equal(t, uint64(0x10000), heap.Base)
	assert.Equal(t, uint64(1<<20), heap.Size)
	assert.Equal(t, addrspace.ProtRead|addrspace.ProtWrite, heap.Protection)

	stack := rep.Results[1].Region
	require.NotNil(t, stack)
	assert.Equal(t, uint64(0xffff0000), stack.Base)

	found := rep.Results[3].Region
	require.NotNil(t, found)
	assert.Equal(t, "heap", found.Name)

	require.ErrorIs(t, rep.Results[2].Err, interval.ErrConflict)
	require.ErrorIs(t, rep.Results[7].Err, addrspace.ErrParked)
	require.ErrorIs(t, rep.Results[10].Err, addrspace.ErrNotFound)

	st := as.Stats()
	assert.Equal(t, 1, st.Regions)
	assert.Equal(t, uint64(64<<10), st.Reserved)
}

func TestRunUnexpected(t *testing.T) {
	w := &Workload{Steps: []Step{
		{Op: OpReserve, Name: "a", Size: "4KiB", ExpectError: true},
		{Op: OpQuery, Addr: "0"},
	}}
	rep, err := Run(context.Background(), newSpace(t), w)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Unexpected())
	assert.NoError(t, rep.Results[0].Err)
	assert.ErrorIs(t, rep.Results[1].Err, addrspace.ErrNotFound)
}

func TestRunInvalid(t *testing.T) {
	for _, s := range []Step{
		{Op: "explode"},
		{Op: OpReserve, Size: "lots"},
		{Op: OpReserve, Size: "1", Protection: "q"},
		{Op: OpRelease, Region: "nobody"},
		{Op: OpProtect},
		{Op: OpQuery, Addr: "here"},
	} {
		w := &Workload{Steps: []Step{{Op: OpReserve, Size: "1"}, s}}
		rep, err := Run(context.Background(), newSpace(t), w)
		require.ErrorIs(t, err, ErrInvalidStep, "%+v", s)
		assert.Len(t, rep.Results, 1)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Workload{Steps: []Step{{Op: OpVerify}}}
	rep, err := Run(ctx, newSpace(t), w)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Results)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demo), 0o600))
	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, OpReserve, w.Steps[0].Op)
	assert.Equal(t, "0x10010", w.Steps[3].Addr)

	_, err = Decode(strings.NewReader("steps: [{op: reserve, colour: red}]"))
	require.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
