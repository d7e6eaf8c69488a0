// Package addrspace simulates the reservation of regions of a process's
// virtual address space. Regions are kept in an interval.Table guarded by a
// read-write lock: lookups share the lock and rely on the table's
// remembered node, while reservations and releases take it exclusively.
package addrspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"strings"
	"sync"
	"time"

	"github.com/ajwerner/avltable/interval"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	// ErrInvalidRequest is returned for malformed reservations.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidLimits is returned by New for unusable limits.
	ErrInvalidLimits = errors.New("invalid limits")
	// ErrNotFound is returned when no region starts at an address.
	ErrNotFound = errors.New("region not found")
	// ErrParked is returned while the address space is parked.
	ErrParked = errors.New("address space is parked")
)

// Protection is the access permitted to a region.
type Protection uint8

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec
)

func (p Protection) String() string {
	b := []byte("---")
	if p&ProtRead != 0 {
		b[0] = 'r'
	}
	if p&ProtWrite != 0 {
		b[1] = 'w'
	}
	if p&ProtExec != 0 {
		b[2] = 'x'
	}
	return string(b)
}

// ParseProtection parses a protection in the form printed by String, or
// any subset of the letters r, w and x.
func ParseProtection(s string) (Protection, error) {
	var p Protection
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			p |= ProtRead
		case 'w':
			p |= ProtWrite
		case 'x':
			p |= ProtExec
		case '-':
		default:
			return 0, fmt.Errorf("%w: protection %q", ErrInvalidRequest, s)
		}
	}
	return p, nil
}

// Region describes a reserved region.
type Region struct {
	Base       uint64
	Size       uint64
	Name       string
	Protection Protection
}

// End returns the last address of the region.
func (r Region) End() uint64 { return r.Base + r.Size - 1 }

// Limits bound the address space.
type Limits struct {
	// Low and High are the first and last usable addresses.
	Low, High uint64
	// PageSize is the unit to which region sizes are rounded.
	PageSize uint64
	// Granularity is the alignment of region bases. It is a power of two
	// and a multiple of PageSize.
	Granularity uint64
	// MaxRegions bounds the number of regions; zero means no bound.
	MaxRegions int
}

func (l Limits) validate() error {
	switch {
	case l.Low > l.High:
		return fmt.Errorf("%w: low %#x above high %#x", ErrInvalidLimits, l.Low, l.High)
	case l.PageSize == 0 || bits.OnesCount64(l.PageSize) != 1:
		return fmt.Errorf("%w: page size %d is not a power of two", ErrInvalidLimits, l.PageSize)
	case l.Granularity < l.PageSize || bits.OnesCount64(l.Granularity) != 1:
		return fmt.Errorf("%w: granularity %d is not a power of two multiple of the page size",
			ErrInvalidLimits, l.Granularity)
	case l.MaxRegions < 0:
		return fmt.Errorf("%w: max regions %d", ErrInvalidLimits, l.MaxRegions)
	}
	return nil
}

// Request describes a reservation.
type Request struct {
	Name       string
	Size       uint64
	Protection Protection
	// Base requests a fixed placement; zero lets the address space choose.
	Base uint64
	// TopDown places the region at the highest free address instead of the
	// lowest. It is ignored when Base is set.
	TopDown bool
}

type region struct {
	name string
	prot Protection
}

// Stats summarizes an address space.
type Stats struct {
	Regions  int
	Reserved uint64
	Depth    int
}

// AddressSpace is a set of non-overlapping reserved regions. It is safe for
// concurrent use.
type AddressSpace struct {
	id     uuid.UUID
	log    *slog.Logger
	rec    Recorder
	limits Limits
	verify bool

	mu       sync.RWMutex
	regions  *interval.Table[uint64, region]
	reserved uint64
	parked   bool
}

// Option configures an AddressSpace.
type Option func(*AddressSpace)

// WithLogger sets the logger. Operations are logged at debug level.
func WithLogger(l *slog.Logger) Option { return func(as *AddressSpace) { as.log = l } }

// WithRecorder sets the destination of measurements.
func WithRecorder(r Recorder) Option { return func(as *AddressSpace) { as.rec = r } }

// WithID sets the identifier attached to log records.
func WithID(id uuid.UUID) Option { return func(as *AddressSpace) { as.id = id } }

// WithVerification checks the structure of the region table after every
// change.
func WithVerification() Option { return func(as *AddressSpace) { as.verify = true } }

// New constructs an empty address space.
func New(limits Limits, opts ...Option) (*AddressSpace, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}
	as := &AddressSpace{
		id:     uuid.New(),
		log:    slog.New(slog.DiscardHandler),
		rec:    nopRecorder{},
		limits: limits,
	}
	for _, o := range opts {
		o(as)
	}
	tableOpts := []interval.Option{interval.WithCapacity(limits.MaxRegions)}
	if as.verify {
		tableOpts = append(tableOpts, interval.WithVerification())
	}
	as.regions = interval.New[uint64, region](tableOpts...)
	as.log = as.log.With("address_space", as.id.String())
	return as, nil
}

// ID returns the identifier of the address space.
func (as *AddressSpace) ID() uuid.UUID { return as.id }

// Limits returns the limits the address space was created with.
func (as *AddressSpace) Limits() Limits { return as.limits }

// Reserve reserves a region. The size is rounded up to a whole number of
// pages and the base is aligned to the granularity.
func (as *AddressSpace) Reserve(ctx context.Context, req Request) (Region, error) {
	start := time.Now()
	r, err := as.reserve(ctx, req)
	as.rec.RecordOp(ctx, OpReserve, time.Since(start), err)
	if err != nil {
		as.log.DebugContext(ctx, "reserve failed", "name", req.Name,
			"size", humanize.IBytes(req.Size), "error", err)
		return Region{}, err
	}
	as.log.DebugContext(ctx, "reserved region", "name", r.Name,
		"base", fmt.Sprintf("%#x", r.Base), "size", humanize.IBytes(r.Size),
		"protection", r.Protection.String())
	return r, nil
}

func (as *AddressSpace) reserve(ctx context.Context, req Request) (Region, error) {
	size, ok := roundUp(req.Size, as.limits.PageSize)
	if req.Size == 0 || !ok {
		return Region{}, fmt.Errorf("%w: size %d", ErrInvalidRequest, req.Size)
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	if as.parked {
		return Region{}, ErrParked
	}

	base := req.Base
	if base != 0 {
		end := base + size - 1
		if base%as.limits.Granularity != 0 || end < base ||
			base < as.limits.Low || end > as.limits.High {
			return Region{}, fmt.Errorf("%w: fixed base %#x for %s", ErrInvalidRequest,
				base, humanize.IBytes(size))
		}
	} else {
		dir := interval.LowestFit
		if req.TopDown {
			dir = interval.HighestFit
		}
		var err error
		window := interval.Range[uint64]{Low: as.limits.Low, High: as.limits.High}
		base, _, err = as.regions.FindFreeRange(size, as.limits.Granularity, window, dir)
		if err != nil {
			return Region{}, fmt.Errorf("reserving %s: %w", humanize.IBytes(size), err)
		}
	}

	n, err := as.regions.Alloc(
		interval.Range[uint64]{Low: base, High: base + size - 1},
		region{name: req.Name, prot: req.Protection},
	)
	if err != nil {
		return Region{}, err
	}
	if err := as.regions.Insert(n); err != nil {
		as.regions.Free(n)
		return Region{}, fmt.Errorf("reserving %#x: %w", base, err)
	}
	as.reserved += size
	as.rec.RecordUsage(ctx, as.regions.Len(), as.reserved)
	return as.describe(n), nil
}

// Release releases the region starting at base.
func (as *AddressSpace) Release(ctx context.Context, base uint64) error {
	start := time.Now()
	r, err := as.release(ctx, base)
	as.rec.RecordOp(ctx, OpRelease, time.Since(start), err)
	if err != nil {
		as.log.DebugContext(ctx, "release failed", "base", fmt.Sprintf("%#x", base), "error", err)
		return err
	}
	as.log.DebugContext(ctx, "released region", "name", r.Name,
		"base", fmt.Sprintf("%#x", r.Base), "size", humanize.IBytes(r.Size))
	return nil
}

func (as *AddressSpace) release(ctx context.Context, base uint64) (Region, error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.parked {
		return Region{}, ErrParked
	}
	n, err := as.exact(base)
	if err != nil {
		return Region{}, err
	}
	r := as.describe(n)
	as.regions.Remove(n)
	as.regions.Free(n)
	as.reserved -= r.Size
	as.rec.RecordUsage(ctx, as.regions.Len(), as.reserved)
	return r, nil
}

// Protect changes the protection of the region starting at base.
func (as *AddressSpace) Protect(ctx context.Context, base uint64, prot Protection) error {
	start := time.Now()
	err := as.protect(base, prot)
	as.rec.RecordOp(ctx, OpProtect, time.Since(start), err)
	return err
}

func (as *AddressSpace) protect(base uint64, prot Protection) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.parked {
		return ErrParked
	}
	n, err := as.exact(base)
	if err != nil {
		return err
	}
	v := as.regions.Value(n)
	v.prot = prot
	as.regions.SetValue(n, v)
	return nil
}

// exact returns the node of the region starting at base.
func (as *AddressSpace) exact(base uint64) (interval.Node, error) {
	n := as.regions.LocateInTree(base)
	if n == interval.Nil || as.regions.Range(n).Low != base {
		return interval.Nil, fmt.Errorf("%w at %#x", ErrNotFound, base)
	}
	return n, nil
}

// Query returns the region containing addr. Queries share the lock with
// each other.
func (as *AddressSpace) Query(ctx context.Context, addr uint64) (Region, bool) {
	start := time.Now()
	as.mu.RLock()
	var r Region
	var ok bool
	if !as.parked {
		if n := as.regions.Locate(addr); n != interval.Nil {
			r, ok = as.describe(n), true
		}
	}
	as.mu.RUnlock()
	var err error
	if !ok {
		err = ErrNotFound
	}
	as.rec.RecordOp(ctx, OpQuery, time.Since(start), err)
	return r, ok
}

// List returns up to limit regions which contain from or lie above it, in
// address order. A limit of zero means no limit.
func (as *AddressSpace) List(from uint64, limit int) []Region {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.parked {
		return nil
	}
	var out []Region
	it := as.regions.MakeIter()
	for it.SeekGE(from); it.Valid() && (limit == 0 || len(out) < limit); it.Next() {
		out = append(out, as.describe(it.Node()))
	}
	return out
}

// Stats returns a summary of the address space.
func (as *AddressSpace) Stats() Stats {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return Stats{Regions: as.regions.Len(), Reserved: as.reserved, Depth: as.regions.Depth()}
}

// Park compresses the region table. Until Unpark, every operation fails or
// finds nothing.
func (as *AddressSpace) Park(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.parked {
		return ErrParked
	}
	if err := as.regions.Hibernate(); err != nil {
		return fmt.Errorf("parking: %w", err)
	}
	as.parked = true
	as.log.InfoContext(ctx, "parked address space", "regions", as.regions.Len())
	return nil
}

// Unpark restores a parked address space.
func (as *AddressSpace) Unpark(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if !as.parked {
		return nil
	}
	if err := as.regions.Boot(); err != nil {
		return fmt.Errorf("unparking: %w", err)
	}
	as.parked = false
	as.log.InfoContext(ctx, "unparked address space", "regions", as.regions.Len())
	return nil
}

// Verify checks the region table and the accounting of reserved bytes.
func (as *AddressSpace) Verify() error {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.parked {
		return ErrParked
	}
	if err := as.regions.Verify(); err != nil {
		return err
	}
	var sum uint64
	as.regions.Walk(func(_ interval.Node, r interval.Range[uint64], _ region) bool {
		sum += r.Size()
		return true
	})
	if sum != as.reserved {
		return fmt.Errorf("regions cover %d bytes, accounted %d", sum, as.reserved)
	}
	return nil
}

func (as *AddressSpace) describe(n interval.Node) Region {
	r := as.regions.Range(n)
	v := as.regions.Value(n)
	return Region{Base: r.Low, Size: r.Size(), Name: v.name, Protection: v.prot}
}

func roundUp(n, unit uint64) (uint64, bool) {
	r := (n + unit - 1) &^ (unit - 1)
	return r, r >= n
}
