package capcpu

import (
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// FromPtr builds a capability by offsetting authority to addr, the
// inverse of ToPtr: it lets code that only ever sees an integer pointer
// plus a known authority (usually DDC) reconstitute a capability cheaply.
// addr==0 is special-cased to the null capability regardless of authority,
// matching the architectural convention that a null C pointer converts to
// the null capability rather than authority-with-zero-offset.
func (h *Hart) FromPtr(authorityReg int, addr uint64) (capvalue.Capability, *Trap) {
	if addr == 0 {
		return capvalue.NullCapability(), nil
	}
	authority := h.regOrDDC(authorityReg)
	before := authority.Offset()
	result, trap := h.setOffset(authority, addr-authority.Base, uint8(authorityReg))
	if trap == nil {
		h.Stats.FromPtr(signedMagnitude((addr - authority.Base) - before))
	}
	return result, trap
}

// ToPtr returns src's address relative to authority's base: 0 if src is
// untagged (the inverse convention FromPtr uses for the null capability),
// 0 if the result would fall outside authority's bounds, and a TAG trap if
// authority itself is untagged - authority has to be a real capability to
// serve as the addressing context even though src need not be.
func (h *Hart) ToPtr(srcReg, authorityReg int) (uint64, *Trap) {
	src := h.Regs.GetCapReg(srcReg)
	if !src.Tag {
		return 0, nil
	}
	authority := h.regOrDDC(authorityReg)
	if e := capcheck.Tag(authority, uint8(authorityReg)); e != nil {
		return 0, h.raise(e)
	}
	if !capvalue.InBounds(authority, src.Cursor, 0) {
		return 0, nil
	}
	return src.Cursor - authority.Base, nil
}
