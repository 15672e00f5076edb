package capcpu

import (
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// Seal returns a copy of src sealed with object type newType, authorized by
// sealer: src must be tagged and unsealed; sealer must be tagged, unsealed,
// carry PermSeal, and newType must lie within sealer's own bounds (the
// object-type space is addressed through the sealing capability exactly
// like a memory region).
func (h *Hart) Seal(srcReg, sealerReg int, newType capvalue.OType) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	sealer := h.Regs.GetCapReg(sealerReg)
	if e := capcheck.Unsealed(src, uint8(srcReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	if e := capcheck.Sealer(sealer, newType, uint8(sealerReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	h.Stats.Sealed()
	return capvalue.SetSealed(src, newType), nil
}

// SealEntry returns a copy of src sealed as a sentry (sealed-for-entry).
// Unlike Seal this needs no authorizing sealing capability: PermExecute on
// src itself is what makes it eligible, since a sentry can only ever be
// jumped through, never loaded or stored as arbitrary data.
func (h *Hart) SealEntry(srcReg int) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	if e := capcheck.Perm(src, capvalue.PermExecute, uint8(srcReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	h.Stats.Sealed()
	return capvalue.MakeSealedEntry(src), nil
}

// Unseal returns a copy of src unsealed, authorized by unsealer: src must
// be tagged and sealed with an ordinary user object type (not a sentry);
// unsealer must be tagged, unsealed, carry PermUnseal, and its cursor must
// equal src's object type exactly - the architectural "does this key fit
// this lock" check. The result additionally gains PermGlobal cleared if
// unsealer itself lacks PermGlobal, propagating non-global-ness through
// the unseal the way real CHERI's CUnseal does.
func (h *Hart) Unseal(srcReg, unsealerReg int) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	unsealer := h.Regs.GetCapReg(unsealerReg)

	if e := capcheck.Tag(src, uint8(srcReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	otype, ok := capvalue.IsSealedWithType(src)
	if !ok {
		return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcSeal, RegNum: uint8(srcReg)})
	}
	if e := capcheck.Unsealer(unsealer, otype, uint8(unsealerReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	if unsealer.Cursor != uint64(otype) {
		return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcType, RegNum: uint8(unsealerReg)})
	}

	result := capvalue.SetUnsealed(src)
	if !unsealer.Perms.Has(capvalue.PermGlobal) {
		result.Perms &^= capvalue.PermGlobal
	}
	h.Stats.Unsealed()
	return result, nil
}
