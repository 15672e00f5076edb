/*
   CHERI-MIPS capability coprocessor - check engine.

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

// Package capcheck implements the priority-ordered legality check every
// capability-using instruction runs before it touches architectural state:
// tag, then seal, then permission, then bounds. Each helper here returns a
// nil *Exception on success so call sites read as a guard clause, never a
// Go error - architectural exceptions are data, not the error channel.
package capcheck

import "github.com/rcornwell/cherimips/emu/capvalue"

// ExcCode is a capability exception code, reported through CapCause.
type ExcCode uint8

// Exception codes, in the same priority order the check engine evaluates
// them. A caller hitting several at once always sees the highest-priority
// one: a capability with a clear tag is reported as ExcTag even if its
// bounds would also have failed.
const (
	ExcNone ExcCode = iota
	ExcTag
	ExcSeal
	ExcType
	ExcPermGlobal
	ExcPermExecute
	ExcPermLoad
	ExcPermStore
	ExcPermLoadCap
	ExcPermStoreCap
	ExcPermStoreLocal
	ExcPermSeal
	ExcPermUnseal
	ExcPermCCall
	ExcPermAccessSysRegs
	ExcPermUser
	ExcLength
	ExcUnaligned
	ExcInexact
)

// permExcCode maps a single missing permission bit to its exception code.
// Only one bit of want is expected per call in practice (the architecture
// reports one violation at a time); for a multi-bit want the lowest-valued
// missing bit's code is returned, matching a hardware priority encoder.
var permExcCode = []struct {
	bit  capvalue.Permissions
	code ExcCode
}{
	{capvalue.PermGlobal, ExcPermGlobal},
	{capvalue.PermExecute, ExcPermExecute},
	{capvalue.PermLoad, ExcPermLoad},
	{capvalue.PermStore, ExcPermStore},
	{capvalue.PermLoadCap, ExcPermLoadCap},
	{capvalue.PermStoreCap, ExcPermStoreCap},
	{capvalue.PermStoreLocal, ExcPermStoreLocal},
	{capvalue.PermSeal, ExcPermSeal},
	{capvalue.PermUnseal, ExcPermUnseal},
	{capvalue.PermCCall, ExcPermCCall},
	{capvalue.PermAccessSysRegs, ExcPermAccessSysRegs},
}

// Exception is the typed result a failed check returns: never a Go error,
// always accompanied by the register number that was being checked so
// capregs.CapCause can be filled in by the caller.
type Exception struct {
	Code   ExcCode
	RegNum uint8
}

func missingPermCode(have, want capvalue.Permissions) ExcCode {
	missing := want &^ have
	for _, p := range permExcCode {
		if missing&p.bit != 0 {
			return p.code
		}
	}
	return ExcPermUser
}

// Tag requires cap to be tagged.
func Tag(cap capvalue.Capability, regNum uint8) *Exception {
	if !cap.Tag {
		return &Exception{Code: ExcTag, RegNum: regNum}
	}
	return nil
}

// Unsealed requires cap to be tagged and unsealed, the precondition nearly
// every mutating operation shares.
func Unsealed(cap capvalue.Capability, regNum uint8) *Exception {
	if e := Tag(cap, regNum); e != nil {
		return e
	}
	if !cap.OType.IsUnsealed() {
		return &Exception{Code: ExcSeal, RegNum: regNum}
	}
	return nil
}

// Perm requires cap to be tagged, unsealed, and to carry every bit of want.
func Perm(cap capvalue.Capability, want capvalue.Permissions, regNum uint8) *Exception {
	if e := Unsealed(cap, regNum); e != nil {
		return e
	}
	if !cap.Perms.Has(want) {
		return &Exception{Code: missingPermCode(cap.Perms, want), RegNum: regNum}
	}
	return nil
}

// Bounds requires [addr, addr+nbytes) to lie within cap's bounds, on top of
// everything Perm already requires. This is the full four-stage check
// (tag, seal, perm, bounds) used by every memory access.
func Bounds(cap capvalue.Capability, want capvalue.Permissions, addr, nbytes uint64, regNum uint8) *Exception {
	if e := Perm(cap, want, regNum); e != nil {
		return e
	}
	if !capvalue.InBounds(cap, addr, nbytes) {
		return &Exception{Code: ExcLength, RegNum: regNum}
	}
	return nil
}

// Alignment additionally requires addr to be a multiple of align (1, 2, 4,
// or 8), used by the integer load/store path when the unaligned-access
// policy is off.
func Alignment(addr uint64, align uint64, regNum uint8) *Exception {
	if addr&(align-1) != 0 {
		return &Exception{Code: ExcUnaligned, RegNum: regNum}
	}
	return nil
}

// SealOperand checks the capability being sealed: tagged and unsealed. The
// new type's range is checked by Sealer.
func SealOperand(cap capvalue.Capability, regNum uint8) *Exception {
	return Unsealed(cap, regNum)
}

// Sealer checks the capability supplying the new object type: tagged,
// unsealed, PermSeal set, and the type in range.
func Sealer(sealer capvalue.Capability, newType capvalue.OType, regNum uint8) *Exception {
	if e := Perm(sealer, capvalue.PermSeal, regNum); e != nil {
		return e
	}
	if !newType.IsUserSealed() {
		return &Exception{Code: ExcLength, RegNum: regNum}
	}
	if !capvalue.InBounds(sealer, uint64(newType), 1) {
		return &Exception{Code: ExcLength, RegNum: regNum}
	}
	return nil
}

// Unsealer checks the capability used to unseal another: tagged, unsealed,
// PermUnseal set, otype in bounds, and (by convention, checked by the
// caller comparing cursor to otype) authorized for the specific sealed
// capability's type.
func Unsealer(unsealer capvalue.Capability, otype capvalue.OType, regNum uint8) *Exception {
	if e := Perm(unsealer, capvalue.PermUnseal, regNum); e != nil {
		return e
	}
	if !capvalue.InBounds(unsealer, uint64(otype), 1) {
		return &Exception{Code: ExcLength, RegNum: regNum}
	}
	return nil
}

// CCallOperands checks the code and data capabilities the two-operand CCall
// consumes: both must be tagged, sealed with the same ordinary object type
// (never a sentry - jumping through a sentry is CJR/CJALR, not CCall), code
// must carry PermExecute and PermCCall, data must carry PermCCall and must
// not carry PermExecute (a data capability masquerading as code is rejected
// the same way an executable cb would be).
func CCallOperands(code, data capvalue.Capability, codeReg, dataReg uint8) *Exception {
	if e := Tag(code, codeReg); e != nil {
		return e
	}
	if _, ok := capvalue.IsSealedWithType(code); !ok {
		return &Exception{Code: ExcSeal, RegNum: codeReg}
	}
	if !code.Perms.Has(capvalue.PermExecute | capvalue.PermCCall) {
		return &Exception{Code: missingPermCode(code.Perms, capvalue.PermExecute|capvalue.PermCCall), RegNum: codeReg}
	}
	if e := Tag(data, dataReg); e != nil {
		return e
	}
	if _, ok := capvalue.IsSealedWithType(data); !ok {
		return &Exception{Code: ExcSeal, RegNum: dataReg}
	}
	if !data.Perms.Has(capvalue.PermCCall) {
		return &Exception{Code: ExcPermCCall, RegNum: dataReg}
	}
	if data.Perms.HasAny(capvalue.PermExecute) {
		return &Exception{Code: ExcPermExecute, RegNum: dataReg}
	}
	if code.OType != data.OType {
		return &Exception{Code: ExcType, RegNum: dataReg}
	}
	return nil
}

// SentryJumpOperand checks a capability used as a CJR/CJALR jump target:
// tagged, either unsealed or a sentry (sealed-for-entry), and executable.
func SentryJumpOperand(target capvalue.Capability, regNum uint8) *Exception {
	if e := Tag(target, regNum); e != nil {
		return e
	}
	if !target.OType.IsUnsealed() && !target.OType.IsSentry() {
		return &Exception{Code: ExcSeal, RegNum: regNum}
	}
	if !target.Perms.Has(capvalue.PermExecute) {
		return &Exception{Code: ExcPermExecute, RegNum: regNum}
	}
	return nil
}
