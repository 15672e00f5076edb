/*
   CHERI-MIPS capability coprocessor - statistics surface.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package capstats is the coprocessor's optional observer: instruction
// semantics call it unconditionally, and it alone decides whether counters
// are exported anywhere, matching the teacher's own "the device doesn't
// know if anyone's listening" design note.
package capstats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer receives one call per notable architectural event. A Registry
// implements it backed by real Prometheus collectors; tests can supply a
// no-op or counting fake without pulling in the registry.
type Observer interface {
	ExceptionRaised(code uint8)
	CapRead()
	CapReadTagged()
	CapWrite()
	CapWriteTagged()
	Sealed()
	Unsealed()
	CCalled()
	Cleared(count int)
	ImpreciseSetBounds()
	UnrepresentableCap()
	Instruction(kernel bool)
	IncOffset(distance float64)
	SetOffset(distance float64)
	GetPCCSetOffset(distance float64)
	FromPtr(distance float64)
}

// distanceBuckets are the bucket boundaries for every "how far did this
// operation move the cursor" histogram: 1, 2, 4, ... doubling up to 64,
// then 256, 1K, 4K, 64K, 1M and 64M, plus the overflow bucket.
var distanceBuckets = []float64{
	1, 2, 4, 8, 16, 32, 64, 256, 1024, 4096, 64 * 1024, 1024 * 1024, 64 * 1024 * 1024,
}

// Registry is the Prometheus-backed Observer.
type Registry struct {
	exceptions          *prometheus.CounterVec
	capReads            prometheus.Counter
	capReadsTagged      prometheus.Counter
	capWrites           prometheus.Counter
	capWritesTagged     prometheus.Counter
	seals               prometheus.Counter
	unseals             prometheus.Counter
	ccalls              prometheus.Counter
	cleared             prometheus.Counter
	impreciseSetBounds  prometheus.Counter
	unrepresentableCaps prometheus.Counter
	icount              prometheus.Counter
	icountKernel        prometheus.Counter
	icountUser          prometheus.Counter
	incOffset           prometheus.Histogram
	setOffset           prometheus.Histogram
	getPCCSetOffset     prometheus.Histogram
	fromPtr             prometheus.Histogram
}

// NewRegistry constructs a Registry and registers every collector with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cheri",
			Subsystem: "cop2",
			Name:      "exceptions_total",
			Help:      "Capability exceptions raised, by check-engine code.",
		}, []string{"code"}),
		capReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "cap_read_total",
			Help: "Capability loads (LoadCap), tagged or not.",
		}),
		capReadsTagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "cap_read_tagged_total",
			Help: "Capability loads that preserved a set tag bit.",
		}),
		capWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "cap_write_total",
			Help: "Capability stores (StoreCap), tagged or not.",
		}),
		capWritesTagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "cap_write_tagged_total",
			Help: "Capability stores of a tagged capability.",
		}),
		seals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "seals_total",
			Help: "CSeal operations that produced a sealed capability.",
		}),
		unseals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "unseals_total",
			Help: "CUnseal operations that produced an unsealed capability.",
		}),
		ccalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "ccalls_total",
			Help: "CCall domain transitions.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "registers_cleared_total",
			Help: "Capability registers (general registers and DDC) cleared by ClearReg.",
		}),
		impreciseSetBounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "imprecise_setbounds_total",
			Help: "SetBounds calls that rounded length up past what was requested.",
		}),
		unrepresentableCaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "unrepresentable_caps_total",
			Help: "Operations on a tagged capability that produced an unrepresentable result and untagged it.",
		}),
		icount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "icount_total",
			Help: "Instructions executed.",
		}),
		icountKernel: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "icount_kernel_total",
			Help: "Instructions executed while in kernel mode.",
		}),
		icountUser: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "icount_user_total",
			Help: "Instructions executed while in user mode.",
		}),
		incOffset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "inc_offset_distance",
			Help: "Magnitude of the distance CIncOffset moved a cursor.", Buckets: distanceBuckets,
		}),
		setOffset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "set_offset_distance",
			Help: "Magnitude of the distance CSetOffset moved a cursor.", Buckets: distanceBuckets,
		}),
		getPCCSetOffset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "get_pcc_set_offset_distance",
			Help:    "Magnitude of the distance CGetPCCSetOffset moved PCC's cursor.",
			Buckets: distanceBuckets,
		}),
		fromPtr: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cheri", Subsystem: "cop2", Name: "from_ptr_distance",
			Help: "Magnitude of the distance CFromPtr moved a cursor.", Buckets: distanceBuckets,
		}),
	}
	reg.MustRegister(r.exceptions, r.capReads, r.capReadsTagged, r.capWrites, r.capWritesTagged,
		r.seals, r.unseals, r.ccalls, r.cleared, r.impreciseSetBounds, r.unrepresentableCaps,
		r.icount, r.icountKernel, r.icountUser,
		r.incOffset, r.setOffset, r.getPCCSetOffset, r.fromPtr)
	return r
}

func (r *Registry) ExceptionRaised(code uint8) {
	r.exceptions.WithLabelValues(strconv.Itoa(int(code))).Inc()
}
func (r *Registry) CapRead()          { r.capReads.Inc() }
func (r *Registry) CapReadTagged()    { r.capReadsTagged.Inc() }
func (r *Registry) CapWrite()         { r.capWrites.Inc() }
func (r *Registry) CapWriteTagged()   { r.capWritesTagged.Inc() }
func (r *Registry) Sealed()           { r.seals.Inc() }
func (r *Registry) Unsealed()         { r.unseals.Inc() }
func (r *Registry) CCalled()          { r.ccalls.Inc() }
func (r *Registry) Cleared(count int) { r.cleared.Add(float64(count)) }
func (r *Registry) ImpreciseSetBounds()  { r.impreciseSetBounds.Inc() }
func (r *Registry) UnrepresentableCap()  { r.unrepresentableCaps.Inc() }
func (r *Registry) Instruction(kernel bool) {
	r.icount.Inc()
	if kernel {
		r.icountKernel.Inc()
	} else {
		r.icountUser.Inc()
	}
}
func (r *Registry) IncOffset(d float64)       { r.incOffset.Observe(d) }
func (r *Registry) SetOffset(d float64)       { r.setOffset.Observe(d) }
func (r *Registry) GetPCCSetOffset(d float64) { r.getPCCSetOffset.Observe(d) }
func (r *Registry) FromPtr(d float64)         { r.fromPtr.Observe(d) }

// Noop is an Observer that discards every event, the default a Hart is
// constructed with when the caller doesn't want metrics.
type Noop struct{}

func (Noop) ExceptionRaised(uint8)     {}
func (Noop) CapRead()                  {}
func (Noop) CapReadTagged()            {}
func (Noop) CapWrite()                 {}
func (Noop) CapWriteTagged()           {}
func (Noop) Sealed()                   {}
func (Noop) Unsealed()                 {}
func (Noop) CCalled()                  {}
func (Noop) ImpreciseSetBounds()       {}
func (Noop) UnrepresentableCap()       {}
func (Noop) Instruction(bool)          {}
func (Noop) Cleared(int)                {}
func (Noop) IncOffset(float64)          {}
func (Noop) SetOffset(float64)          {}
func (Noop) GetPCCSetOffset(float64)    {}
func (Noop) FromPtr(float64)            {}
