package capcpu

import (
	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// hwrIndex names each hardware capability register CReadHwr/CWriteHwr can
// reach. Access is gated per-register, not by a single ordinal threshold:
// see hwrClass.
type hwrIndex int

const (
	HwrDDC hwrIndex = iota
	HwrUserTlsCap
	HwrPrivTlsCap
	HwrCapBranchTarget
	HwrKR1C
	HwrKR2C
	HwrKCC
	HwrKDC
	HwrEPCC
	HwrErrorEPCC
)

// hwrClass names one of the four access policies the HWR table assigns.
type hwrClass int

const (
	// hwrAlways is reachable from any mode: DDC, UserTlsCap, and
	// CapBranchTarget (read by the ordinary unprivileged two-stage branch
	// mechanism, so it can't require privilege).
	hwrAlways hwrClass = iota
	// hwrAccessSysRegs requires PermAccessSysRegs on PCC: PrivTlsCap.
	hwrAccessSysRegs
	// hwrKernelOnly requires the hart to be in kernel mode: KR1C, KR2C.
	hwrKernelOnly
	// hwrKernelAndAccessSysRegs requires both: KCC, KDC, EPCC, ErrorEPCC.
	hwrKernelAndAccessSysRegs
)

func (idx hwrIndex) class() hwrClass {
	switch idx {
	case HwrPrivTlsCap:
		return hwrAccessSysRegs
	case HwrKR1C, HwrKR2C:
		return hwrKernelOnly
	case HwrKCC, HwrKDC, HwrEPCC, HwrErrorEPCC:
		return hwrKernelAndAccessSysRegs
	default:
		return hwrAlways
	}
}

func (h *Hart) hwrSlot(idx hwrIndex) *capvalue.Capability {
	switch idx {
	case HwrDDC:
		return &h.Regs.DDC
	case HwrUserTlsCap:
		return &h.Regs.UserTlsCap
	case HwrPrivTlsCap:
		return &h.Regs.PrivTlsCap
	case HwrCapBranchTarget:
		return &h.Regs.CapBranchTarget
	case HwrKR1C:
		return &h.Regs.KR1C
	case HwrKR2C:
		return &h.Regs.KR2C
	case HwrKCC:
		return &h.Regs.KCC
	case HwrKDC:
		return &h.Regs.KDC
	case HwrEPCC:
		return &h.Regs.EPCC
	case HwrErrorEPCC:
		return &h.Regs.ErrorEPCC
	default:
		return nil
	}
}

// checkHwrAccess enforces idx's access class. Every failure mode - missing
// PermAccessSysRegs or the wrong privilege mode - is reported as
// ACCESS_SYS_REGS, matching the architectural "wrong access raises
// ACCESS_SYS_REGS" rule for the whole HWR table.
func (h *Hart) checkHwrAccess(idx hwrIndex) *Trap {
	switch idx.class() {
	case hwrAlways:
		return nil
	case hwrAccessSysRegs:
		if e := capcheck.Perm(h.Regs.PCC, capvalue.PermAccessSysRegs, 0); e != nil {
			return h.raise(e)
		}
	case hwrKernelOnly:
		if !h.Regs.KernelMode {
			return h.raise(&capcheck.Exception{Code: capcheck.ExcPermAccessSysRegs, RegNum: 0})
		}
	case hwrKernelAndAccessSysRegs:
		if !h.Regs.KernelMode {
			return h.raise(&capcheck.Exception{Code: capcheck.ExcPermAccessSysRegs, RegNum: 0})
		}
		if e := capcheck.Perm(h.Regs.PCC, capvalue.PermAccessSysRegs, 0); e != nil {
			return h.raise(e)
		}
	}
	return nil
}

// ReadHwr returns the named hardware capability register, raising an
// ACCESS_SYS_REGS exception if the access requirements of idx's class
// (kernel mode and/or PCC's PermAccessSysRegs) are not met.
func (h *Hart) ReadHwr(idx hwrIndex) (capvalue.Capability, *Trap) {
	if trap := h.checkHwrAccess(idx); trap != nil {
		return capvalue.Capability{}, trap
	}
	slot := h.hwrSlot(idx)
	if slot == nil {
		return capvalue.Capability{}, &Trap{Kind: TrapReservedInstruction}
	}
	return *slot, nil
}

// WriteHwr writes the named hardware capability register.
func (h *Hart) WriteHwr(idx hwrIndex, value capvalue.Capability) *Trap {
	if trap := h.checkHwrAccess(idx); trap != nil {
		return trap
	}
	slot := h.hwrSlot(idx)
	if slot == nil {
		return &Trap{Kind: TrapReservedInstruction}
	}
	*slot = value
	return nil
}
