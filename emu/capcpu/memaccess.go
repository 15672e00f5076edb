package capcpu

import (
	"encoding/binary"

	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capencoding"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

// diagnoseTypeMismatch logs (never traps) when authority's object type
// disagrees with the executing context's PCC.otype on an ordinary
// load/store. The source this is ported from left the corresponding
// exception-raise commented out with no clear resolution; per policy this
// is surfaced as a warning behind capconfig.Policy.DiagnoseTypeMismatch,
// never as a PERM/TYPE trap.
func (h *Hart) diagnoseTypeMismatch(authority capvalue.Capability, authorityReg int) {
	if !h.Policy.DiagnoseTypeMismatch {
		return
	}
	if h.Regs.PCC.OType != authority.OType {
		h.Log.Warn("load/store otype does not match PCC otype",
			"reg", authorityReg, "pcc_otype", h.Regs.PCC.OType, "otype", authority.OType)
	}
}

// LoadInt reads an nbytes-wide (1, 2, 4, or 8) little-endian integer
// through authority, checking tag/seal/PermLoad/bounds and, when the
// policy requires alignment, the address's alignment too.
func (h *Hart) LoadInt(authorityReg int, offset uint64, nbytes int) (uint64, *Trap) {
	authority := h.regOrDDC(authorityReg)
	h.diagnoseTypeMismatch(authority, authorityReg)
	addr := authority.Base + offset
	if e := capcheck.Bounds(authority, capvalue.PermLoad, addr, uint64(nbytes), uint8(authorityReg)); e != nil {
		return 0, h.raise(e)
	}
	if !h.Policy.UnalignedAccess {
		if e := capcheck.Alignment(addr, uint64(nbytes), uint8(authorityReg)); e != nil {
			return 0, h.raise(e)
		}
	}
	raw, ok := h.Mem.ReadBytes(addr, nbytes)
	if !ok {
		return 0, &Trap{Kind: TrapAddressError}
	}
	return decodeUint(raw), nil
}

// StoreInt writes an nbytes-wide little-endian integer through authority.
// A narrower-than-capability store always clears the tag of any capability
// that used to occupy the touched granule(s), per capmemory.WriteBytes.
func (h *Hart) StoreInt(authorityReg int, offset uint64, nbytes int, value uint64) *Trap {
	authority := h.regOrDDC(authorityReg)
	h.diagnoseTypeMismatch(authority, authorityReg)
	addr := authority.Base + offset
	if e := capcheck.Bounds(authority, capvalue.PermStore, addr, uint64(nbytes), uint8(authorityReg)); e != nil {
		return h.raise(e)
	}
	if !h.Policy.UnalignedAccess {
		if e := capcheck.Alignment(addr, uint64(nbytes), uint8(authorityReg)); e != nil {
			return h.raise(e)
		}
	}
	raw := encodeUint(value, nbytes)
	if ok := h.Mem.WriteBytes(addr, raw); !ok {
		return &Trap{Kind: TrapAddressError}
	}
	return nil
}

// LoadCap reads a capability through authority: authority must be tagged,
// unsealed and carry PermLoadCap, and the capability-width access must be
// in bounds and aligned. An authority without PermLoadCap traps rather than
// loading the bytes untagged; PermLoad is not checked.
func (h *Hart) LoadCap(authorityReg int, offset uint64) (capvalue.Capability, *Trap) {
	authority := h.regOrDDC(authorityReg)
	width := h.Codec.Width()
	addr := authority.Base + offset
	if e := capcheck.Bounds(authority, capvalue.PermLoadCap, addr, uint64(width), uint8(authorityReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}
	if e := capcheck.Alignment(addr, uint64(width), uint8(authorityReg)); e != nil {
		return capvalue.Capability{}, h.raise(e)
	}

	raw, ok := h.Mem.ReadBytes(addr, width)
	if !ok {
		return capvalue.Capability{}, &Trap{Kind: TrapAddressError}
	}
	tag := h.Mem.TagGet(addr)
	h.Stats.CapRead()

	if sb, isSideBand := h.Codec.(capencoding.SideBandCodec); isSideBand {
		base := binary.LittleEndian.Uint64(raw[0:8])
		cursor := binary.LittleEndian.Uint64(raw[8:16])
		result := sb.DecodeSideBand(base, cursor, tag, h.sideBands[addr])
		if tag {
			h.Stats.CapReadTagged()
		}
		return result, nil
	}

	result := h.Codec.Decompress(raw, tag)
	if tag {
		h.Stats.CapReadTagged()
	}
	return result, nil
}

// StoreCap writes a capability through authority, requiring PermStoreCap,
// and additionally PermStoreLocal if cap lacks PermGlobal (a non-global
// capability may only be stored somewhere that agrees to contain
// non-global pointers).
func (h *Hart) StoreCap(authorityReg int, offset uint64, cap capvalue.Capability) *Trap {
	authority := h.regOrDDC(authorityReg)
	width := h.Codec.Width()
	addr := authority.Base + offset

	need := capvalue.PermStoreCap
	if cap.Tag && !cap.Perms.Has(capvalue.PermGlobal) {
		need |= capvalue.PermStoreLocal
	}
	if e := capcheck.Bounds(authority, need, addr, uint64(width), uint8(authorityReg)); e != nil {
		return h.raise(e)
	}
	if e := capcheck.Alignment(addr, uint64(width), uint8(authorityReg)); e != nil {
		return h.raise(e)
	}

	raw := h.Codec.Compress(cap)
	if !h.Mem.WriteBytes(addr, raw) {
		return &Trap{Kind: TrapAddressError}
	}
	h.Mem.TagSet(addr, cap.Tag)
	if sb, isSideBand := h.Codec.(capencoding.SideBandCodec); isSideBand {
		if h.sideBands == nil {
			h.sideBands = make(map[uint64]capencoding.SideBand)
		}
		h.sideBands[addr] = sb.EncodeSideBand(cap)
	}
	h.Stats.CapWrite()
	if cap.Tag {
		h.Stats.CapWriteTagged()
	}
	return nil
}

// CheckDDCLoad validates an nbytes-wide integer load relative to DDC,
// the default-data-capability-relative addressing mode plain (non-capability
// register) load instructions use.
func CheckDDCLoad(h *Hart, addr uint64, nbytes uint64) *Trap {
	if e := capcheck.Bounds(h.Regs.DDC, capvalue.PermLoad, addr, nbytes, 0); e != nil {
		return h.raise(e)
	}
	return nil
}

// CheckDDCStore is CheckDDCLoad's store-side counterpart.
func CheckDDCStore(h *Hart, addr uint64, nbytes uint64) *Trap {
	if e := capcheck.Bounds(h.Regs.DDC, capvalue.PermStore, addr, nbytes, 0); e != nil {
		return h.raise(e)
	}
	return nil
}

// partialWidth is the number of bytes a MIPS load/store-right or -left
// instruction actually touches given the low bits of its address: it
// always accesses up to the next/previous word boundary.
func partialWidth(addr uint64, wordSize uint64, right bool) uint64 {
	low := addr % wordSize
	if right {
		return wordSize - low
	}
	return low + 1
}

// CheckDDCLoadRight validates the unaligned load-right access starting at
// addr, which reads from addr up to the next wordSize-byte boundary.
func CheckDDCLoadRight(h *Hart, addr uint64, wordSize uint64) *Trap {
	return CheckDDCLoad(h, addr, partialWidth(addr, wordSize, true))
}

// CheckDDCLoadLeft validates the unaligned load-left access ending at addr,
// which reads from the start of addr's word up to and including addr.
func CheckDDCLoadLeft(h *Hart, addr uint64, wordSize uint64) *Trap {
	n := partialWidth(addr, wordSize, false)
	return CheckDDCLoad(h, addr-n+1, n)
}

// CheckDDCStoreRight is CheckDDCLoadRight's store-side counterpart.
func CheckDDCStoreRight(h *Hart, addr uint64, wordSize uint64) *Trap {
	return CheckDDCStore(h, addr, partialWidth(addr, wordSize, true))
}

// CheckDDCStoreLeft is CheckDDCLoadLeft's store-side counterpart.
func CheckDDCStoreLeft(h *Hart, addr uint64, wordSize uint64) *Trap {
	n := partialWidth(addr, wordSize, false)
	return CheckDDCStore(h, addr-n+1, n)
}

func decodeUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		return 0
	}
}

func encodeUint(v uint64, nbytes int) []byte {
	b := make([]byte, nbytes)
	switch nbytes {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
	return b
}
