// Package workload replays scripted operations against an address space.
//
// A workload is a YAML document:
//
//	name: demo
//	steps:
//	  - {op: reserve, name: heap, size: 1MiB, protection: rw}
//	  - {op: reserve, name: stack, size: 64KiB, top_down: true}
//	  - {op: query, addr: 0x10010}
//	  - {op: protect, region: heap, protection: r}
//	  - {op: park}
//	  - {op: unpark}
//	  - {op: release, region: heap}
//	  - {op: verify}
//
// Sizes and addresses are integers or human-readable sizes. Release and
// protect name their target either by the name given when it was reserved
// or by its base address.
package workload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ajwerner/avltable/internal/addrspace"
	"github.com/ajwerner/avltable/internal/config"
	"gopkg.in/yaml.v3"
)

// ErrInvalidStep is returned for a step which cannot be executed.
var ErrInvalidStep = errors.New("invalid step")

// Op is the operation of a step.
type Op string

const (
	OpReserve Op = "reserve"
	OpRelease Op = "release"
	OpQuery   Op = "query"
	OpProtect Op = "protect"
	OpPark    Op = "park"
	OpUnpark  Op = "unpark"
	OpVerify  Op = "verify"
)

// Workload is a named sequence of steps.
type Workload struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is a single operation.
type Step struct {
	Op         Op     `yaml:"op"`
	Name       string `yaml:"name,omitempty"`
	Size       string `yaml:"size,omitempty"`
	Base       string `yaml:"base,omitempty"`
	Addr       string `yaml:"addr,omitempty"`
	Region     string `yaml:"region,omitempty"`
	Protection string `yaml:"protection,omitempty"`
	TopDown    bool   `yaml:"top_down,omitempty"`
	// ExpectError marks a step which is expected to fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Decode reads a workload, rejecting unknown fields.
func Decode(r io.Reader) (*Workload, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var w Workload
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode workload: %w", err)
	}
	return &w, nil
}

// Load reads the workload at path.
func Load(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Result is the outcome of one step.
type Result struct {
	Step int
	Op   Op
	// Region is the region reserved or found, if any.
	Region *addrspace.Region
	Err    error
	// Unexpected is set when the step failed, or succeeded, contrary to its
	// ExpectError.
	Unexpected bool
}

// Report is the outcome of a run.
type Report struct {
	Workload string
	Results  []Result
}

// Unexpected returns the number of steps whose outcome was not the one
// expected.
func (r *Report) Unexpected() int {
	var n int
	for _, res := range r.Results {
		if res.Unexpected {
			n++
		}
	}
	return n
}

// Run executes the steps of w in order. A step which fails is recorded in
// the report; Run itself fails only for malformed steps or a done context.
func Run(ctx context.Context, as *addrspace.AddressSpace, w *Workload) (*Report, error) {
	r := runner{as: as, named: make(map[string]uint64)}
	rep := &Report{Workload: w.Name}
	for i, s := range w.Steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := r.step(ctx, s)
		if err != nil {
			return rep, fmt.Errorf("step %d (%s): %w", i, s.Op, err)
		}
		res.Step, res.Op = i, s.Op
		res.Unexpected = (res.Err != nil) != s.ExpectError
		rep.Results = append(rep.Results, res)
	}
	return rep, nil
}

type runner struct {
	as    *addrspace.AddressSpace
	named map[string]uint64
}

// step executes s. The returned error reports a malformed step; the
// outcome of a well-formed one is in the Result.
func (r *runner) step(ctx context.Context, s Step) (Result, error) {
	switch s.Op {
	case OpReserve:
		req, err := r.request(s)
		if err != nil {
			return Result{}, err
		}
		reg, err := r.as.Reserve(ctx, req)
		if err != nil {
			return Result{Err: err}, nil
		}
		if s.Name != "" {
			r.named[s.Name] = reg.Base
		}
		return Result{Region: &reg}, nil

	case OpRelease:
		base, err := r.target(s)
		if err != nil {
			return Result{}, err
		}
		if err := r.as.Release(ctx, base); err != nil {
			return Result{Err: err}, nil
		}
		if s.Region != "" {
			delete(r.named, s.Region)
		}
		return Result{}, nil

	case OpQuery:
		addr, err := config.ParseSize(s.Addr)
		if err != nil {
			return Result{}, fmt.Errorf("%w: addr: %w", ErrInvalidStep, err)
		}
		reg, ok := r.as.Query(ctx, addr)
		if !ok {
			return Result{Err: fmt.Errorf("%w at %#x", addrspace.ErrNotFound, addr)}, nil
		}
		return Result{Region: &reg}, nil

	case OpProtect:
		base, err := r.target(s)
		if err != nil {
			return Result{}, err
		}
		prot, err := addrspace.ParseProtection(s.Protection)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		return Result{Err: r.as.Protect(ctx, base, prot)}, nil

	case OpPark:
		return Result{Err: r.as.Park(ctx)}, nil

	case OpUnpark:
		return Result{Err: r.as.Unpark(ctx)}, nil

	case OpVerify:
		return Result{Err: r.as.Verify()}, nil

	default:
		return Result{}, fmt.Errorf("%w: unknown op %q", ErrInvalidStep, s.Op)
	}
}

func (r *runner) request(s Step) (addrspace.Request, error) {
	req := addrspace.Request{Name: s.Name, TopDown: s.TopDown}
	var err error
	if req.Size, err = config.ParseSize(s.Size); err != nil {
		return req, fmt.Errorf("%w: size: %w", ErrInvalidStep, err)
	}
	if s.Base != "" {
		if req.Base, err = config.ParseSize(s.Base); err != nil {
			return req, fmt.Errorf("%w: base: %w", ErrInvalidStep, err)
		}
	}
	if req.Protection, err = addrspace.ParseProtection(s.Protection); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidStep, err)
	}
	return req, nil
}

// target resolves the region a step refers to.
func (r *runner) target(s Step) (uint64, error) {
	switch {
	case s.Region != "":
		base, ok := r.named[s.Region]
		if !ok {
			return 0, fmt.Errorf("%w: no region named %q", ErrInvalidStep, s.Region)
		}
		return base, nil
	case s.Base != "":
		base, err := config.ParseSize(s.Base)
		if err != nil {
			return 0, fmt.Errorf("%w: base: %w", ErrInvalidStep, err)
		}
		return base, nil
	default:
		return 0, fmt.Errorf("%w: %s needs a region or a base", ErrInvalidStep, s.Op)
	}
}
