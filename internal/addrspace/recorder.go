package addrspace

//go:generate mockgen -source recorder.go -destination recorder_mocks.go -package addrspace

import (
	"context"
	"time"
)

// Op names an address space operation for metrics.
type Op string

const (
	OpReserve Op = "reserve"
	OpRelease Op = "release"
	OpQuery   Op = "query"
	OpProtect Op = "protect"
)

// Recorder receives measurements from an AddressSpace. Implementations must
// be safe for concurrent use; queries report from under a shared lock.
type Recorder interface {
	// RecordOp reports a completed operation. err is nil on success.
	RecordOp(ctx context.Context, op Op, d time.Duration, err error)
	// RecordUsage reports the number of reserved regions and the bytes
	// they cover after a change.
	RecordUsage(ctx context.Context, regions int, reserved uint64)
}

type nopRecorder struct{}

func (nopRecorder) RecordOp(context.Context, Op, time.Duration, error) {}
func (nopRecorder) RecordUsage(context.Context, int, uint64)           {}
