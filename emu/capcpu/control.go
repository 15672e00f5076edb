package capcpu

import (
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// Jr installs target as the new PCC: target must be tagged, unsealed or a
// sentry, and executable. Installing a sentry unseals it in the same
// instruction (CJR's "jump and unseal" combined form); a plain unsealed
// capability installs unchanged.
func (h *Hart) Jr(targetReg int) *Trap {
	target := h.Regs.GetCapReg(targetReg)
	if e := capcheck.SentryJumpOperand(target, uint8(targetReg)); e != nil {
		return h.raise(e)
	}
	h.Regs.PCC = capvalue.SetUnsealed(target)
	return nil
}

// Jalr behaves like Jr but first saves the return capability (PCC with its
// cursor advanced past the branch-delay slot, sealed as a sentry) into
// general register linkReg.
func (h *Hart) Jalr(targetReg, linkReg int, delaySlotBytes uint64) *Trap {
	target := h.Regs.GetCapReg(targetReg)
	if e := capcheck.SentryJumpOperand(target, uint8(targetReg)); e != nil {
		return h.raise(e)
	}
	link := h.Regs.PCC
	link.Cursor += delaySlotBytes
	h.Regs.SetCapReg(linkReg, capvalue.MakeSealedEntry(link))
	h.Regs.PCC = capvalue.SetUnsealed(target)
	return nil
}

// CheckPCC validates that nextPC (the address the surrounding translator
// is about to fetch from) still lies within PCC's bounds and that PCC
// still carries PermExecute. Exposed as a standalone entrypoint because the
// instruction-fetch path that calls it lives outside this module. Runs
// before every instruction, so it also doubles as the icount tick.
func CheckPCC(h *Hart, nextPC uint64) *Trap {
	pcc := h.Regs.PCC
	h.Stats.Instruction(h.Regs.KernelMode)
	if e := capcheck.Bounds(pcc, capvalue.PermExecute, nextPC, 4, 0); e != nil {
		return h.raise(e)
	}
	return nil
}

// CheckBranchTarget validates a computed branch target the same way
// CheckPCC validates the linear-fetch address, before it becomes the next
// PCC cursor.
func CheckBranchTarget(h *Hart, target uint64) *Trap {
	return CheckPCC(h, target)
}
