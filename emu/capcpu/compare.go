package capcpu

// Eq reports whether registers a and b hold bit-identical capabilities
// (every field, including the tag).
func (h *Hart) Eq(aReg, bReg int) bool {
	a, b := h.Regs.GetCapReg(aReg), h.Regs.GetCapReg(bReg)
	return a == b
}

// Ne is the complement of Eq.
func (h *Hart) Ne(aReg, bReg int) bool { return !h.Eq(aReg, bReg) }

// Exeq reports whether a and b are equal ignoring their tag bits - two
// capabilities with identical fields but different validity still compare
// "exeq" equal, unlike Eq.
func (h *Hart) Exeq(aReg, bReg int) bool {
	a, b := h.Regs.GetCapReg(aReg), h.Regs.GetCapReg(bReg)
	a.Tag, b.Tag = false, false
	return a == b
}

// Nexeq is the complement of Exeq.
func (h *Hart) Nexeq(aReg, bReg int) bool { return !h.Exeq(aReg, bReg) }

// Lt reports whether a's address is less than b's, as signed 64-bit
// integers - the comparison used for pointer ordering within an object
// that might span the signed/unsigned boundary. When a and b carry
// different tags the untagged operand always orders below the tagged one,
// regardless of either cursor's value.
func (h *Hart) Lt(aReg, bReg int) bool {
	a, b := h.Regs.GetCapReg(aReg), h.Regs.GetCapReg(bReg)
	if a.Tag != b.Tag {
		return !a.Tag
	}
	return int64(a.Cursor) < int64(b.Cursor)
}

// Le is the non-strict form of Lt.
func (h *Hart) Le(aReg, bReg int) bool {
	a, b := h.Regs.GetCapReg(aReg), h.Regs.GetCapReg(bReg)
	if a.Tag != b.Tag {
		return !a.Tag
	}
	return int64(a.Cursor) <= int64(b.Cursor)
}

// Ltu is Lt with an unsigned address comparison.
func (h *Hart) Ltu(aReg, bReg int) bool {
	a, b := h.Regs.GetCapReg(aReg), h.Regs.GetCapReg(bReg)
	if a.Tag != b.Tag {
		return !a.Tag
	}
	return a.Cursor < b.Cursor
}

// Leu is Le with an unsigned address comparison.
func (h *Hart) Leu(aReg, bReg int) bool {
	a, b := h.Regs.GetCapReg(aReg), h.Regs.GetCapReg(bReg)
	if a.Tag != b.Tag {
		return !a.Tag
	}
	return a.Cursor <= b.Cursor
}

// TestSubset reports whether candidate's bounds and permissions are both
// contained within base's - the query CHERI software uses to check a
// capability before trusting it as a narrower view of one it already
// holds, without actually attempting (and possibly faulting on) a
// monotonic derivation.
func (h *Hart) TestSubset(baseReg, candidateReg int) bool {
	base, candidate := h.Regs.GetCapReg(baseReg), h.Regs.GetCapReg(candidateReg)
	if base.Tag != candidate.Tag {
		return false
	}
	if candidate.Base < base.Base || !candidate.Top.LessEqual(base.Top) {
		return false
	}
	return candidate.Perms&^base.Perms == 0
}
