/*
   CHERI-MIPS capability coprocessor - hart state and trap plumbing.

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

// Package capcpu implements every capability instruction's semantics: one
// function per operation, taking and returning plain values plus a *Trap,
// the same shape the teacher's cpu_standard.go gives its opXXX methods
// returning a uint16 irc code. Nothing here is a Go error; a non-nil *Trap
// is architectural state for the caller (the surrounding translator, out of
// scope) to act on, never something to wrap or propagate as one.
package capcpu

import (
	"log/slog"

	"github.com/rcornwell/cherimips/config/capconfig"
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capencoding"
	"github.com/rcornwell/cherimips/emu/capmemory"
	"github.com/rcornwell/cherimips/emu/capregs"
	"github.com/rcornwell/cherimips/emu/capstats"
	"github.com/rcornwell/cherimips/emu/capvalue"
	"github.com/rcornwell/cherimips/util/logger"
)

// TrapKind distinguishes the check-engine path from the handful of other
// architectural faults instruction semantics can raise directly.
type TrapKind uint8

const (
	// TrapCheck wraps a *capcheck.Exception: tag, seal, permission, or
	// bounds violation.
	TrapCheck TrapKind = iota
	// TrapReservedInstruction covers CCall/CReturn operand misuse that
	// isn't itself a capcheck violation (e.g. a CReturn with no saved
	// domain to return to).
	TrapReservedInstruction
	// TrapAddressError is the capability-load/store analogue of MIPS
	// AdEL/AdES: an access that fell outside physical memory entirely.
	// Unaligned accesses the policy forbids are a TrapCheck carrying
	// capcheck.ExcUnaligned instead.
	TrapAddressError
)

// Trap is the non-error architectural result a failed operation returns.
type Trap struct {
	Kind  TrapKind
	Check *capcheck.Exception
}

func trapFromCheck(e *capcheck.Exception) *Trap {
	if e == nil {
		return nil
	}
	return &Trap{Kind: TrapCheck, Check: e}
}

// Hart is one capability-coprocessor core: its register file, the physical
// memory it accesses capabilities through, the wire codec its registers
// compress to when stored, the behavior policy, and the stats observer
// every operation reports to unconditionally.
type Hart struct {
	Regs   *capregs.File
	Mem    *capmemory.Memory
	Codec  capencoding.Codec
	Policy capconfig.Policy
	Stats  capstats.Observer
	Log    *slog.Logger

	// saved is the CCall/CReturn domain stack; see ccall.go.
	saved []savedDomain

	// sideBands holds the out-of-band (otype, perms, sealed, length) tuple
	// magic128 side-carries per tagged capability-granule address; see
	// memaccess.go and capencoding.SideBandCodec.
	sideBands map[uint64]capencoding.SideBand
}

// NewHart constructs a Hart with its register file reset at pc. A nil stats
// or log is replaced with a safe no-op so callers that don't care about
// observability don't need to construct one.
func NewHart(pc uint64, mem *capmemory.Memory, codec capencoding.Codec, policy capconfig.Policy, stats capstats.Observer, log *slog.Logger) *Hart {
	if stats == nil {
		stats = capstats.Noop{}
	}
	if log == nil {
		debug := false
		log = slog.New(logger.NewHandler(discardWriter{}, nil, nil, &debug))
	}
	return &Hart{
		Regs:   capregs.NewFile(pc),
		Mem:    mem,
		Codec:  codec,
		Policy: policy,
		Stats:  stats,
		Log:    log,
	}
}

// regOrDDC reads general capability register i, except that index 0
// aliases DDC rather than the null capability for the handful of
// operations the architecture defines that way: load/store authority,
// FromPtr/ToPtr, and BuildCap. Every other read of register 0 (GetAddr,
// AndPerm, Seal, ...) goes through Regs.GetCapReg directly and sees the
// ordinary null general register.
func (h *Hart) regOrDDC(i int) capvalue.Capability {
	if i == 0 {
		return h.Regs.DDC
	}
	return h.Regs.GetCapReg(i)
}

// raise records the check-engine exception into CapCause, reports it to the
// stats observer, logs it, and returns the Trap the caller should return.
func (h *Hart) raise(e *capcheck.Exception) *Trap {
	if e == nil {
		return nil
	}
	h.Regs.Cause = capregs.CapCause{ExcCode: uint8(e.Code), RegNum: e.RegNum}
	h.Stats.ExceptionRaised(uint8(e.Code))
	h.Log.Debug("capability exception", "code", e.Code, "reg", e.RegNum)
	return trapFromCheck(e)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
