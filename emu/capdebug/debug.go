/*
   CHERI-MIPS capability coprocessor - debugger register interface.

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

// Package capdebug exposes the two fixed-index register tables an external
// debugger reads and writes: one spanning the integer GPRs, FPU registers,
// and select CP0 registers, and a parallel one spanning the 32 general
// capability registers plus the named hardware capability registers and a
// bitset reporting which of them currently have their tag set.
package capdebug

import (
	"log/slog"
	"strings"

	"github.com/rcornwell/cherimips/emu/capcpu"
	"github.com/rcornwell/cherimips/emu/capvalue"
	"github.com/rcornwell/cherimips/util/hex"
)

// Integer table: 32 GPRs (0-31), then the fixed CP0/FPU window every
// remote debugger and local state dump shares: Status, LO, HI, BadVAddr,
// Cause, PC (32-37), 32 FPU registers addressed per frMode (38-69), FCR31
// (70, RW bits only), FCR0 (71, write ignored). Indices at or above
// NumIntSlots are silently ignored by Read and Write rather than treated
// as a fault - matching the teacher's own "debugger pokes outside the
// known table are a no-op" convention for its hardware register windows.
//
// This coprocessor only emulates CHERI capability state; it does not
// execute the surrounding MIPS integer or floating-point instruction set.
// Status/LO/HI/BadVAddr/Cause/FPRs/FCR31/FCR0 are carried here purely as
// addressable save/restore storage for a debugger or context switch, with
// no further semantics attached - PC is the one exception, since it
// mirrors the live PCC cursor rather than a separate shadow.
const (
	IntTableGPRBase  = 0
	IntTableStatus   = 32
	IntTableLO       = 33
	IntTableHI       = 34
	IntTableBadVAddr = 35
	IntTableCause    = 36
	IntTablePC       = 37
	IntTableFPRBase  = 38
	IntTableFCR31    = 70
	IntTableFCR0     = 71
	NumIntSlots      = 72

	numFPR = 32
)

// fcr31RWMask selects FCR31's software-writable bits (rounding mode,
// sticky/enable/cause flag fields); the remaining bits read back zero and
// ignore writes, matching "FCR31 (RW bits only)".
const fcr31RWMask = 0x0183ffff

// statusWriteMask and causeWriteMask are the bits a debugger write to
// Status/Cause is allowed to change - the interrupt-mask/privilege bits and
// the two software-interrupt-pending bits respectively; everything else in
// those registers is read-only from this interface.
const (
	statusWriteMask = 0x0000ff57
	causeWriteMask  = 0x00000300
)

// Capability table: 32 general capability registers (0-31), then 11 named
// hardware capability registers (32-42), then one bitset slot (43)
// reporting which of the preceding 43 entries are currently tagged, one
// bit per entry.
const (
	CapTableGPCRBase = 0
	CapTableHwrBase  = 32
	CapTableTagBitsetIndex = 43
	NumCapSlots            = 44
)

// IntegerTable reads and writes the GPR/FPU/CP0 debugger window. Status,
// LO, HI, BadVAddr, Cause, the FPRs, and the two FP control registers are
// plain shadow storage: this coprocessor never executes the instructions
// that would otherwise update them, so a debugger's save/restore is the
// only writer. PC is not shadow storage - it reads and writes the live
// PCC cursor, the one slot in this table backed by real capability state.
type IntegerTable struct {
	h      *capcpu.Hart
	frMode bool // true: FPU registers are 32x64-bit; false: 16 pairs of 32-bit halves
	log    *slog.Logger

	status, lo, hi, badVAddr, cause uint64
	fpr                             [numFPR]uint64
	fcr31, fcr0                     uint32
}

// NewIntegerTable constructs the integer debugger table over h.
func NewIntegerTable(h *capcpu.Hart, frMode bool, log *slog.Logger) *IntegerTable {
	return &IntegerTable{h: h, frMode: frMode, log: log}
}

// fprSlot maps a debugger FPR index to the underlying register number and
// whether it addresses the low or high half of a 32-bit-halved pair. When
// frMode is set, FPRs are 32 independent 64-bit registers addressed
// one-to-one; otherwise only the 16 even-numbered registers exist as
// 64-bit storage and odd slots address the upper half of the preceding
// even one, matching MIPS's FR=0 32-bit-FPU register pairing.
func (t *IntegerTable) fprSlot(index int) (reg int, highHalf bool) {
	if t.frMode {
		return index, false
	}
	return index &^ 1, index&1 != 0
}

// Read returns slot's value and whether the index was in range.
func (t *IntegerTable) Read(slot int) (uint64, bool) {
	switch {
	case slot >= IntTableGPRBase && slot < IntTableStatus:
		return t.h.Regs.GetGPR(slot - IntTableGPRBase), true
	case slot == IntTableStatus:
		return t.status, true
	case slot == IntTableLO:
		return t.lo, true
	case slot == IntTableHI:
		return t.hi, true
	case slot == IntTableBadVAddr:
		return t.badVAddr, true
	case slot == IntTableCause:
		return t.cause, true
	case slot == IntTablePC:
		return t.h.Regs.PCC.Cursor, true
	case slot >= IntTableFPRBase && slot < IntTableFCR31:
		reg, highHalf := t.fprSlot(slot - IntTableFPRBase)
		if highHalf {
			return t.fpr[reg] >> 32, true
		}
		if !t.frMode {
			return t.fpr[reg] & 0xffffffff, true
		}
		return t.fpr[reg], true
	case slot == IntTableFCR31:
		return uint64(t.fcr31 & fcr31RWMask), true
	case slot == IntTableFCR0:
		return uint64(t.fcr0), true
	default:
		return 0, false
	}
}

// Write sets slot's value; out-of-range writes are silently ignored, per
// the debugger window's no-fault convention. A write to FCR0 is accepted
// (never logged as out-of-range) but has no effect, since FCR0 is a
// read-only implementation-identification register.
func (t *IntegerTable) Write(slot int, value uint64) {
	switch {
	case slot >= IntTableGPRBase && slot < IntTableStatus:
		t.h.Regs.SetGPR(slot-IntTableGPRBase, value)
	case slot == IntTableStatus:
		t.status = value & statusWriteMask
	case slot == IntTableLO:
		t.lo = value
	case slot == IntTableHI:
		t.hi = value
	case slot == IntTableBadVAddr:
		t.badVAddr = value
	case slot == IntTableCause:
		t.cause = value & causeWriteMask
	case slot == IntTablePC:
		t.h.Regs.PCC.Cursor = value
	case slot >= IntTableFPRBase && slot < IntTableFCR31:
		reg, highHalf := t.fprSlot(slot - IntTableFPRBase)
		switch {
		case highHalf:
			t.fpr[reg] = t.fpr[reg]&0xffffffff | value<<32
		case !t.frMode:
			t.fpr[reg] = t.fpr[reg]&^0xffffffff | value&0xffffffff
		default:
			t.fpr[reg] = value
		}
	case slot == IntTableFCR31:
		t.fcr31 = uint32(value) & fcr31RWMask
	case slot == IntTableFCR0:
		// read-only; write ignored.
	default:
		if t.log != nil {
			t.log.Debug("debugger write outside integer table ignored", "slot", slot)
		}
	}
}

// CapTable reads and writes the capability-register debugger window.
type CapTable struct {
	h   *capcpu.Hart
	log *slog.Logger
}

// NewCapTable constructs the capability debugger table over h.
func NewCapTable(h *capcpu.Hart, log *slog.Logger) *CapTable {
	return &CapTable{h: h, log: log}
}

func (t *CapTable) hwrSlot(slot int) *capvalue.Capability {
	switch slot - CapTableHwrBase {
	case 0:
		return &t.h.Regs.DDC
	case 1:
		return &t.h.Regs.PCC
	case 2:
		return &t.h.Regs.EPCC
	case 3:
		return &t.h.Regs.ErrorEPCC
	case 4:
		return &t.h.Regs.KCC
	case 5:
		return &t.h.Regs.KDC
	case 6:
		return &t.h.Regs.KR1C
	case 7:
		return &t.h.Regs.KR2C
	case 8:
		return &t.h.Regs.UserTlsCap
	case 9:
		return &t.h.Regs.PrivTlsCap
	case 10:
		return &t.h.Regs.CapBranchTarget
	default:
		return nil
	}
}

// Read returns slot's capability and whether the index was in range.
// Reading the tag-bitset slot (CapTableTagBitsetIndex) instead returns a
// Capability whose Cursor field holds the 43-bit mask of which of the
// preceding entries are tagged, bit i set meaning entry i is tagged.
func (t *CapTable) Read(slot int) (capvalue.Capability, bool) {
	if slot < 0 || slot >= NumCapSlots {
		return capvalue.Capability{}, false
	}
	if slot == CapTableTagBitsetIndex {
		return capvalue.Capability{Cursor: t.tagBitset()}, true
	}
	if slot < CapTableHwrBase {
		return t.h.Regs.GetCapReg(slot - CapTableGPCRBase), true
	}
	if s := t.hwrSlot(slot); s != nil {
		return *s, true
	}
	return capvalue.Capability{}, true
}

// Write sets slot's capability; out-of-range writes (including the
// read-only tag-bitset slot) are silently ignored and logged at debug
// level, matching the integer table's no-fault convention.
func (t *CapTable) Write(slot int, cap capvalue.Capability) {
	if slot < 0 || slot >= NumCapSlots || slot == CapTableTagBitsetIndex {
		if t.log != nil {
			t.log.Debug("debugger write outside capability table ignored", "slot", slot)
		}
		return
	}
	if slot < CapTableHwrBase {
		t.h.Regs.SetCapReg(slot-CapTableGPCRBase, cap)
		return
	}
	if s := t.hwrSlot(slot); s != nil {
		*s = cap
	}
}

// tagBitset packs the tag bit of every general register and named hardware
// register (indices 0-42) into a single 43-bit mask.
func (t *CapTable) tagBitset() uint64 {
	var mask uint64
	for i := 0; i < CapTableTagBitsetIndex; i++ {
		if c, ok := t.Read(i); ok && c.Tag {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// DumpLine formats slot's capability as one fixed-width text line: tag,
// base, top, cursor, permissions, and otype, in that order. Used by an
// external debugger's textual register dump the same way the teacher's
// trace output formats a word of memory through util/hex.
func (t *CapTable) DumpLine(slot int) string {
	c, ok := t.Read(slot)
	if !ok {
		return ""
	}
	var b strings.Builder
	if c.Tag {
		b.WriteByte('T')
	} else {
		b.WriteByte('-')
	}
	b.WriteByte(' ')
	hex.Format64(&b, c.Base)
	b.WriteByte(' ')
	hex.Format64(&b, c.Top.Saturate())
	b.WriteByte(' ')
	hex.Format64(&b, c.Cursor)
	b.WriteByte(' ')
	hex.FormatWord(&b, []uint32{uint32(c.Perms)})
	hex.Format64(&b, uint64(c.OType))
	return b.String()
}
