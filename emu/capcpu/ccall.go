package capcpu

import (
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// savedDomain is the (code, data) pair CReturn needs to hand back to the
// caller of the most recent CCall, mirroring the teacher's own PSW-stack
// suppress/lpsw pairing (one state saved at the trap point, restored by
// the matching return).
type savedDomain struct {
	pcc capvalue.Capability
	idc capvalue.Capability
}

// CCall performs a protection-domain crossing: codeReg and dataReg must be
// tagged, sealed with the same object type, and carry PermCCall (code
// additionally needs PermExecute). On success PCC becomes the unsealed
// code capability, general register idcReg receives the unsealed data
// capability, and the hart remembers the calling domain so a matching
// CReturn can restore it.
func (h *Hart) CCall(codeReg, dataReg, idcReg int) *Trap {
	code := h.Regs.GetCapReg(codeReg)
	data := h.Regs.GetCapReg(dataReg)
	if e := capcheck.CCallOperands(code, data, uint8(codeReg), uint8(dataReg)); e != nil {
		return h.raise(e)
	}

	h.saved = append(h.saved, savedDomain{pcc: h.Regs.PCC, idc: h.Regs.GetCapReg(idcReg)})
	h.Regs.PCC = capvalue.SetUnsealed(code)
	h.Regs.SetCapReg(idcReg, capvalue.SetUnsealed(data))
	h.Stats.CCalled()
	return nil
}

// CReturn restores the domain CCall most recently saved into idcReg/PCC. It
// traps with TrapReservedInstruction if there is no saved domain to return
// to, since that is a program-logic error rather than a capability
// legality violation the check engine would catch.
func (h *Hart) CReturn(idcReg int) *Trap {
	if len(h.saved) == 0 {
		return &Trap{Kind: TrapReservedInstruction}
	}
	last := h.saved[len(h.saved)-1]
	h.saved = h.saved[:len(h.saved)-1]
	h.Regs.PCC = last.pcc
	h.Regs.SetCapReg(idcReg, last.idc)
	return nil
}
