package motionplan

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// OpTiming is the call count and accumulated duration of one timed operation.
type OpTiming struct {
	calls atomic.Int64
	nanos atomic.Int64
}

// PlanMeta accumulates timing information across every Plan call made by one planner. It is safe
// for concurrent use.
type PlanMeta struct {
	timingMu sync.Mutex
	Timing   map[string]*OpTiming
}

// NewPlanMeta constructs PlanMeta.
func NewPlanMeta() *PlanMeta {
	return &PlanMeta{
		Timing: make(map[string]*OpTiming),
	}
}

// DeferTiming can be used as a one-liner for tracking a function invocation. Expected usage at the
// top of a function is:
//
//	defer planMeta.DeferTiming("functionName", time.Now())
func (pm *PlanMeta) DeferTiming(opName string, start time.Time) {
	pm.AddTiming(opName, time.Since(start))
}

// AddTiming will increment the invocation count and time spent for an "operation".
func (pm *PlanMeta) AddTiming(opName string, dur time.Duration) {
	pm.timingMu.Lock()
	defer pm.timingMu.Unlock()

	timing, exists := pm.Timing[opName]
	if !exists {
		timing = &OpTiming{}
		pm.Timing[opName] = timing
	}
	timing.calls.Add(1)
	timing.nanos.Add(dur.Nanoseconds())
}

// Counters returns the timing of an operation, or nil if it has never been timed.
func (pm *PlanMeta) Counters(opName string) *OpTiming {
	pm.timingMu.Lock()
	defer pm.timingMu.Unlock()
	return pm.Timing[opName]
}

// OutputTiming writes one line per timed operation, sorted by name.
func (pm *PlanMeta) OutputTiming(outputWriter io.Writer) error {
	pm.timingMu.Lock()
	names := make([]string, 0, len(pm.Timing))
	for name := range pm.Timing {
		names = append(names, name)
	}
	pm.timingMu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(outputWriter, "%-24s %v\n", name+":", pm.Counters(name)); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns how many times the operation was timed. A nil receiver has none.
func (ot *OpTiming) Calls() int64 {
	if ot == nil {
		return 0
	}
	return ot.calls.Load()
}

// Total returns the time accumulated by the operation.
func (ot *OpTiming) Total() time.Duration {
	if ot == nil {
		return 0
	}
	return time.Duration(ot.nanos.Load())
}

// Mean returns the time per call, or zero for an operation that was never timed.
func (ot *OpTiming) Mean() time.Duration {
	calls := ot.Calls()
	if calls == 0 {
		return 0
	}
	return ot.Total() / time.Duration(calls)
}

func (ot *OpTiming) String() string {
	return fmt.Sprintf("%5d calls %14v total %12v mean", ot.Calls(), ot.Total(), ot.Mean())
}
