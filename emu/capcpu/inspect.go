package capcpu

import "github.com/rcornwell/cherimips/emu/capvalue"

// GetPerm returns register i's architectural and user permission bits,
// never faulting - inspection operations never check the tag.
func (h *Hart) GetPerm(i int) (capvalue.Permissions, capvalue.UPerms) {
	c := h.Regs.GetCapReg(i)
	return c.Perms, c.UPerms
}

// GetBase returns register i's base.
func (h *Hart) GetBase(i int) uint64 { return h.Regs.GetCapReg(i).Base }

// GetLen returns register i's length, saturated to UINT64_MAX for a
// maximal-bounds capability.
func (h *Hart) GetLen(i int) uint64 { return h.Regs.GetCapReg(i).GetLength() }

// GetOffset returns register i's offset, cursor minus base.
func (h *Hart) GetOffset(i int) uint64 { return h.Regs.GetCapReg(i).Offset() }

// GetAddr returns register i's cursor (its address).
func (h *Hart) GetAddr(i int) uint64 { return h.Regs.GetCapReg(i).Cursor }

// GetTag returns register i's tag bit.
func (h *Hart) GetTag(i int) bool { return h.Regs.GetCapReg(i).Tag }

// GetSealed reports whether register i is sealed (sentry or user-sealed).
func (h *Hart) GetSealed(i int) bool { return !h.Regs.GetCapReg(i).OType.IsUnsealed() }

// GetType returns register i's object type, reported as all-ones
// (^uint64(0)) when unsealed, matching the architectural convention that
// lets software test "sealed?" with a single comparison against -1.
func (h *Hart) GetType(i int) uint64 {
	c := h.Regs.GetCapReg(i)
	if c.OType.IsUnsealed() {
		return ^uint64(0)
	}
	return uint64(c.OType)
}

// GetPCC returns the program counter capability.
func (h *Hart) GetPCC() capvalue.Capability { return h.Regs.PCC }

// GetPCCSetOffset returns a copy of PCC with its cursor replaced by
// base+offset, used by JR.C-adjacent addressing modes that compute a
// target relative to the running capability without installing it.
func (h *Hart) GetPCCSetOffset(offset uint64) (capvalue.Capability, *Trap) {
	pcc := h.Regs.PCC
	result, trap := h.setOffset(pcc, offset, 0)
	if trap == nil {
		delta := offset - pcc.Offset()
		h.Stats.GetPCCSetOffset(signedMagnitude(delta))
	}
	return result, trap
}

func signedMagnitude(delta uint64) float64 {
	if int64(delta) < 0 {
		delta = -delta
	}
	return float64(delta)
}
