/*
   CHERI-MIPS capability coprocessor - register file.

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

// Package capregs holds the coprocessor's architectural state: the 32
// general capability registers, the named hardware capability registers,
// the integer GPR shadow exposed through the debugger interface, and the
// capability cause register. Memory tag bits live in emu/capmemory.
package capregs

import "github.com/rcornwell/cherimips/emu/capvalue"

// NumGPCR is the number of general-purpose capability registers.
const NumGPCR = 32

// CapCause records the last capability exception: the priority-ordered
// check-engine code and the register number that triggered it, mirroring
// the MIPS CP0 CapCause register real firmware reads after a trap.
type CapCause struct {
	ExcCode uint8
	RegNum  uint8
}

// File is the complete capability-coprocessor register file for one hart.
type File struct {
	GPCR [NumGPCR]capvalue.Capability
	GPR  [NumGPCR]uint64

	DDC             capvalue.Capability
	PCC             capvalue.Capability
	EPCC            capvalue.Capability
	ErrorEPCC       capvalue.Capability
	KCC             capvalue.Capability
	KDC             capvalue.Capability
	KR1C            capvalue.Capability
	KR2C            capvalue.Capability
	UserTlsCap      capvalue.Capability
	PrivTlsCap      capvalue.Capability
	CapBranchTarget capvalue.Capability

	Cause CapCause

	// KernelMode mirrors the MIPS Status register's KSU/EXL/ERL privilege
	// state as seen by the coprocessor: it gates KR1C/KR2C and (together
	// with PermAccessSysRegs) KCC/KDC/EPCC/ErrorEPCC. The translator is
	// responsible for keeping it in sync with the host CPU model's actual
	// privilege level.
	KernelMode bool
}

// NewFile returns a register file reset at the given PC, per the reset
// shape every hardware capability register starts in: PCC/DDC/EPCC/
// ErrorEPCC/KCC/KDC are maximal-permission, maximal-bounds, unsealed
// capabilities over the whole address space; the 32 general registers and
// remaining named registers are the null capability.
func NewFile(pc uint64) *File {
	f := &File{}
	f.Reset(pc)
	return f
}

// Reset restores f to its power-on state at the given PC.
func (f *File) Reset(pc uint64) {
	for i := range f.GPCR {
		f.GPCR[i] = capvalue.NullCapability()
		f.GPR[i] = 0
	}
	f.DDC = capvalue.MaxPermissionsCapability(0)
	f.PCC = capvalue.MaxPermissionsCapability(pc)
	f.EPCC = capvalue.MaxPermissionsCapability(0)
	f.ErrorEPCC = capvalue.MaxPermissionsCapability(0)
	f.KCC = capvalue.MaxPermissionsCapability(0)
	f.KDC = capvalue.MaxPermissionsCapability(0)
	f.KR1C = capvalue.NullCapability()
	f.KR2C = capvalue.NullCapability()
	f.UserTlsCap = capvalue.NullCapability()
	f.PrivTlsCap = capvalue.NullCapability()
	f.CapBranchTarget = capvalue.NullCapability()
	f.Cause = CapCause{}
	f.KernelMode = true
}

// GetCapReg returns general capability register i.
func (f *File) GetCapReg(i int) capvalue.Capability { return f.GPCR[i] }

// SetCapReg writes general capability register i.
func (f *File) SetCapReg(i int, cap capvalue.Capability) { f.GPCR[i] = cap }

// GetGPR returns integer register i, the MIPS-side shadow read and written
// through the debugger's integer register table.
func (f *File) GetGPR(i int) uint64 { return f.GPR[i] }

// SetGPR writes integer register i.
func (f *File) SetGPR(i int, v uint64) { f.GPR[i] = v }

// ClearReg implements the bulk ClearReg(mask) operation: bit 0 selects DDC,
// bits 1..31 select general registers 1..31 (general register 0 is not
// reachable through this operation).
func (f *File) ClearReg(mask uint32) {
	if mask&1 != 0 {
		f.DDC = capvalue.NullCapability()
	}
	for i := 1; i < NumGPCR; i++ {
		if mask&(1<<uint(i)) != 0 {
			f.GPCR[i] = capvalue.NullCapability()
		}
	}
}
