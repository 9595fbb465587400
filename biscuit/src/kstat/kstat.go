// Package kstat snapshots the handful of kernel counters this core
// tracks (open-file count, page-fault count, frame-allocation
// failures) into a pprof profile, giving the stat:/prof: device
// paths reserved in defs.D_STAT/defs.D_PROF something real to serve.
package kstat

import (
	"bytes"
	"strconv"
	"sync/atomic"

	"github.com/google/pprof/profile"
)

/// Counters_t holds the system-wide counters this package tracks.
/// Each field is updated with sync/atomic from the package that owns
/// the event (fd.Registry_t for Opens, vm.Fault for Faults and
/// FrameFailures).
type Counters_t struct {
	Opens         int64
	Faults        int64
	FrameFailures int64
}

/// Kstats is the process-wide counter set.
var Kstats Counters_t

/// IncOpens records one successful registry insertion.
func IncOpens() { atomic.AddInt64(&Kstats.Opens, 1) }

/// IncFaults records one call into the page-fault handler.
func IncFaults() { atomic.AddInt64(&Kstats.Faults, 1) }

/// IncFrameFailures records one frame-allocation failure.
func IncFrameFailures() { atomic.AddInt64(&Kstats.FrameFailures, 1) }

func (c *Counters_t) snapshot() (opens, faults, failures int64) {
	return atomic.LoadInt64(&c.Opens), atomic.LoadInt64(&c.Faults), atomic.LoadInt64(&c.FrameFailures)
}

// Text renders the current counters as a human-readable line, the
// payload the stat: device path serves on read.
func (c *Counters_t) Text() []byte {
	opens, faults, failures := c.snapshot()
	return []byte(
		"opens=" + strconv.FormatInt(opens, 10) +
			" faults=" + strconv.FormatInt(faults, 10) +
			" frame_failures=" + strconv.FormatInt(failures, 10) + "\n")
}

// Profile builds a pprof profile.Profile with one sample per counter,
// the payload the prof: device path serves on read.
func (c *Counters_t) Profile() *profile.Profile {
	opens, faults, failures := c.snapshot()

	valtype := &profile.ValueType{Type: "count", Unit: "count"}
	mkfunc := func(id uint64, name string) *profile.Function {
		return &profile.Function{ID: id, Name: name, SystemName: name}
	}
	mkloc := func(id uint64, fn *profile.Function) *profile.Location {
		return &profile.Location{ID: id, Line: []profile.Line{{Function: fn, Line: 1}}}
	}

	fOpens := mkfunc(1, "opens")
	fFaults := mkfunc(2, "faults")
	fFail := mkfunc(3, "frame_failures")
	lOpens := mkloc(1, fOpens)
	lFaults := mkloc(2, fFaults)
	lFail := mkloc(3, fFail)

	p := &profile.Profile{
		SampleType: []*profile.ValueType{valtype},
		Function:   []*profile.Function{fOpens, fFaults, fFail},
		Location:   []*profile.Location{lOpens, lFaults, lFail},
		Sample: []*profile.Sample{
			{Location: []*profile.Location{lOpens}, Value: []int64{opens}},
			{Location: []*profile.Location{lFaults}, Value: []int64{faults}},
			{Location: []*profile.Location{lFail}, Value: []int64{failures}},
		},
	}
	return p
}

// Encode serializes Profile() into the gzip-compressed pprof wire
// format.
func (c *Counters_t) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Profile().Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
