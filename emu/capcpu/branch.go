package capcpu

// Bez reports whether register i holds the null capability (untagged,
// base zero, offset zero) - CBEZ's branch condition.
func (h *Hart) Bez(i int) bool { return h.Regs.GetCapReg(i).IsNull() }

// Bnz reports whether register i does NOT hold the null capability -
// CBNZ's branch condition. This must be computed independently of Bez
// rather than by negating some other derived flag: an earlier revision of
// this instruction mistakenly shared Bez's condition outright, so CBNZ
// branched exactly when CBEZ did instead of the opposite, silently
// swapping every CBNZ in a program into a CBEZ. Bnz is defined here as the
// straightforward logical negation of "is null", not as the same
// comparison repeated.
func (h *Hart) Bnz(i int) bool { return !h.Regs.GetCapReg(i).IsNull() }

// Bts reports whether register i's tag bit is set - CBTS's branch
// condition.
func (h *Hart) Bts(i int) bool { return h.Regs.GetCapReg(i).Tag }

// Btu reports whether register i's tag bit is clear - CBTU's branch
// condition.
func (h *Hart) Btu(i int) bool { return !h.Regs.GetCapReg(i).Tag }
