package capcpu

import (
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// AndPerm returns a copy of src with its permissions masked by mask. src
// must be tagged and unsealed; masking never sets bits src did not already
// have, so no exception can arise from clearing permissions alone.
func (h *Hart) AndPerm(srcReg int, mask capvalue.Permissions) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	if e := capcheck.Unsealed(src, uint8(srcReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	return capvalue.AndPerms(src, mask), nil
}

// ClearTag returns a copy of src with its tag bit cleared. Never traps:
// every capability, tagged or not, may have its tag cleared.
func (h *Hart) ClearTag(srcReg int) capvalue.Capability {
	c := h.Regs.GetCapReg(srcReg)
	c.Tag = false
	return c
}

// setOffset is the shared core of SetOffset, IncOffset, SetAddr, AndAddr,
// CopyType, and GetPCCSetOffset: replace cap's cursor with base+offset,
// clearing the tag (never raising an exception) if the result is
// unrepresentable, per CSetOffset's "unrepresentable results silently
// untag" architectural rule. A sealed cap traps SEAL unless the mutation
// is the identity (new cursor equal to the old one).
func (h *Hart) setOffset(cap capvalue.Capability, offset uint64, regNum uint8) (capvalue.Capability, *Trap) {
	newCursor := cap.Base + offset
	if cap.Tag && !cap.OType.IsUnsealed() && newCursor != cap.Cursor {
		return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcSeal, RegNum: regNum})
	}
	if cap.Tag {
		var representable bool
		if !cap.OType.IsUnsealed() {
			representable = h.Codec.RepresentableWhenSealed(cap, newCursor)
		} else {
			representable = h.Codec.Representable(cap, newCursor)
		}
		if !representable {
			cap.Tag = false
			h.Stats.UnrepresentableCap()
		}
	}
	cap.Cursor = newCursor
	return cap, nil
}

// SetOffset returns a copy of src with its cursor replaced by base+offset.
func (h *Hart) SetOffset(srcReg int, offset uint64) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	before := src.Offset()
	result, trap := h.setOffset(src, offset, uint8(srcReg))
	if trap == nil {
		h.Stats.SetOffset(signedMagnitude(offset - before))
	}
	return result, trap
}

// IncOffset returns a copy of src with delta added to its cursor.
func (h *Hart) IncOffset(srcReg int, delta uint64) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	result, trap := h.setOffset(src, src.Offset()+delta, uint8(srcReg))
	if trap == nil {
		h.Stats.IncOffset(signedMagnitude(delta))
	}
	return result, trap
}

// SetAddr returns a copy of src with its cursor replaced directly by addr
// (as opposed to SetOffset, which is base-relative - the two coincide
// exactly when base is zero).
func (h *Hart) SetAddr(srcReg int, addr uint64) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	return h.setOffset(src, addr-src.Base, uint8(srcReg))
}

// AndAddr returns a copy of src with its cursor masked by mask.
func (h *Hart) AndAddr(srcReg int, mask uint64) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	return h.setOffset(src, (src.Cursor&mask)-src.Base, uint8(srcReg))
}

// setBounds is shared by SetBounds and SetBoundsExact.
func (h *Hart) setBounds(srcReg int, length uint64, exact bool) (capvalue.Capability, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	if e := capcheck.Unsealed(src, uint8(srcReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}

	rounded := h.Codec.RoundLengthUp(length)
	if rounded != length {
		if exact {
			return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcInexact, RegNum: uint8(srcReg)})
		}
		h.Stats.ImpreciseSetBounds()
	}

	newBase := src.Cursor
	newTopExact := newBase + rounded
	newTop := capvalue.Top65FromUint64(newTopExact)
	if newTopExact < newBase {
		// base+rounded overflowed 2^64: only a source already maximal at
		// the top could possibly admit this.
		newTop = capvalue.Top65Max
	}
	if newBase < src.Base || !newTop.LessEqual(src.Top) {
		return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcLength, RegNum: uint8(srcReg)})
	}

	result := src
	result.Base = newBase
	result.Top = newTop
	if !h.Codec.Representable(result, result.Cursor) {
		if exact {
			return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcInexact, RegNum: uint8(srcReg)})
		}
		result.Tag = false
		h.Stats.UnrepresentableCap()
	}
	return result, nil
}

// SetBounds narrows src to [cursor, cursor+RoundLengthUp(length)), raising
// LENGTH if that range is not within src's own bounds. The codec may need
// to round length up to the
// nearest representable value; the resulting capability may therefore
// cover slightly more than length bytes.
func (h *Hart) SetBounds(srcReg int, length uint64) (capvalue.Capability, *Trap) {
	return h.setBounds(srcReg, length, false)
}

// SetBoundsExact behaves like SetBounds but raises INEXACT instead of
// silently rounding when length is not already representable exactly.
func (h *Hart) SetBoundsExact(srcReg int, length uint64) (capvalue.Capability, *Trap) {
	return h.setBounds(srcReg, length, true)
}

// CopyType returns a copy of authority with its cursor set to typeSrc's
// object type (or -1 if typeSrc is unsealed), the same "inspect a type as
// an address" trick GetType exposes, but expressed relative to authority's
// own base the way CSetOffset and CIncOffset are: used by exception
// handlers indexing a type-dispatch table through a data capability.
func (h *Hart) CopyType(authorityReg, typeSrcReg int) (capvalue.Capability, *Trap) {
	authority := h.Regs.GetCapReg(authorityReg)
	offset := h.GetType(typeSrcReg)
	return h.setOffset(authority, offset, uint8(authorityReg))
}

// BuildCap validates candidate against authority's own bounds and
// permissions and, if it fits, returns it tagged: authority must be
// tagged and unsealed, candidate's bounds must lie within authority's, and
// candidate's permissions must be a subset of authority's. This is the
// operation a capability relocator/loader uses to turn an untagged,
// architecturally-shaped word back into a genuine capability without
// being able to forge permissions or bounds wider than its own authority.
func (h *Hart) BuildCap(authorityReg int, candidate capvalue.Capability) (capvalue.Capability, *Trap) {
	authority := h.regOrDDC(authorityReg)
	if e := capcheck.Unsealed(authority, uint8(authorityReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	if candidate.Base < authority.Base || !candidate.Top.LessEqual(authority.Top) {
		return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcLength, RegNum: uint8(authorityReg)})
	}
	if candidate.Perms&^authority.Perms != 0 {
		return capvalue.Capability{}, h.raise(&capcheck.Exception{Code: capcheck.ExcPermUser, RegNum: uint8(authorityReg)})
	}
	candidate.Tag = true
	return candidate, nil
}
