package capencoding

import (
	"encoding/binary"

	"github.com/rcornwell/cherimips/emu/capvalue"
)

// Compressed128 is the 128-bit "CHERI concentrate"-style codec: base and top
// are stored as a shared exponent plus a 12-bit mantissa each, with a 2-bit
// signed window-carry per bound recording whether that bound falls in the
// representable window below, at, or above the cursor's own window. The
// exponent value 63 is a reserved sentinel meaning "maximal bounds"
// (base=0, top=2^64), the shape every hardware capability register resets
// to; ordinary capabilities use exponents 0..51.
//
// pesbt (64 bits), MSB to LSB:
//
//	[63:58] exponent (6)
//	[57:56] base window-carry (2)
//	[55:54] top window-carry (2)
//	[53:42] base mantissa (12)
//	[41:30] top mantissa (12)
//	[29:16] otype (14)
//	[15:0]  perms: 12 architectural + 4 user (16)
type Compressed128 struct{}

// NewCompressed128 constructs the compressed128 codec.
func NewCompressed128() *Compressed128 { return &Compressed128{} }

const (
	c128MantissaBits  = 12
	c128MantissaMask  = (uint64(1) << c128MantissaBits) - 1
	c128MaxExponent   = 51
	c128MaximalMarker = 63
	c128OTypeMask     = (uint64(1) << capvalue.OTypeWidth) - 1
	c128PermsMask     = 0xfff
	c128UPermsMask    = 0xf
)

func (*Compressed128) Name() string { return "compressed128" }

func (*Compressed128) Width() int { return 16 }

// exponentFor returns the smallest exponent at which length fits the
// 12-bit mantissa, clamped to the largest ordinary exponent.
func exponentFor(length uint64) int {
	e := 0
	for (length>>uint(e)) > c128MantissaMask && e < c128MaxExponent {
		e++
	}
	return e
}

func encodeCarry(window, ref uint64) uint64 {
	switch d := int64(window) - int64(ref); {
	case d <= -1:
		return 0
	case d == 0:
		return 1
	default:
		return 2
	}
}

func decodeCarry(code uint64) int64 { return int64(code) - 1 }

func (c *Compressed128) Compress(cap capvalue.Capability) []byte {
	out := make([]byte, 16)
	if !cap.Tag {
		binary.LittleEndian.PutUint64(out[0:8], cap.Pesbt)
		binary.LittleEndian.PutUint64(out[8:16], cap.Cursor)
		return out
	}

	perms16 := uint64(cap.Perms)&c128PermsMask | (uint64(cap.UPerms)&c128UPermsMask)<<12
	var pesbt uint64

	if cap.Base == 0 && cap.Top.Overflow {
		pesbt = uint64(c128MaximalMarker)<<58 | uint64(cap.OType)&c128OTypeMask<<16 | perms16
	} else {
		length := cap.GetLength()
		e := exponentFor(length)
		windowShift := uint(e + c128MantissaBits)
		top := cap.Base + length

		bBits := (cap.Base >> uint(e)) & c128MantissaMask
		tBits := (top >> uint(e)) & c128MantissaMask

		cursorWindow := cap.Cursor >> windowShift
		baseCarry := encodeCarry(cap.Base>>windowShift, cursorWindow)
		topCarry := encodeCarry(top>>windowShift, cursorWindow)

		pesbt = uint64(e)<<58 | baseCarry<<56 | topCarry<<54 |
			bBits<<42 | tBits<<30 | uint64(cap.OType)&c128OTypeMask<<16 | perms16
	}

	binary.LittleEndian.PutUint64(out[0:8], pesbt)
	binary.LittleEndian.PutUint64(out[8:16], cap.Cursor)
	return out
}

func (c *Compressed128) Decompress(b []byte, tag bool) capvalue.Capability {
	pesbt := binary.LittleEndian.Uint64(b[0:8])
	cursor := binary.LittleEndian.Uint64(b[8:16])

	otype := capvalue.OType((pesbt >> 16) & c128OTypeMask)
	perms := capvalue.Permissions(pesbt & c128PermsMask)
	uperms := capvalue.UPerms((pesbt >> 12) & c128UPermsMask)
	exp := (pesbt >> 58) & 0x3f

	cp := capvalue.Capability{
		Tag:    tag,
		Cursor: cursor,
		Perms:  perms,
		UPerms: uperms,
		OType:  otype,
		Pesbt:  pesbt,
	}

	if exp == c128MaximalMarker {
		cp.Base = 0
		cp.Top = capvalue.Top65Max
		return cp
	}

	e := uint(exp)
	windowShift := e + c128MantissaBits
	bBits := (pesbt >> 42) & c128MantissaMask
	tBits := (pesbt >> 30) & c128MantissaMask
	baseCarry := (pesbt >> 56) & 0x3
	topCarry := (pesbt >> 54) & 0x3

	cursorWindow := cursor >> windowShift
	baseWindow := uint64(int64(cursorWindow) + decodeCarry(baseCarry))
	topWindow := uint64(int64(cursorWindow) + decodeCarry(topCarry))

	cp.Base = baseWindow<<windowShift | bBits<<e

	windowBits := uint(64) - windowShift
	if windowBits < 64 && topWindow == uint64(1)<<windowBits && tBits == 0 {
		cp.Top = capvalue.Top65Max
	} else {
		cp.Top = capvalue.Top65FromUint64(topWindow<<windowShift | tBits<<e)
	}
	return cp
}

func (c *Compressed128) Representable(cap capvalue.Capability, newCursor uint64) bool {
	if cap.Base == 0 && cap.Top.Overflow {
		return true
	}
	if cap.Top.Overflow {
		return false
	}

	length := cap.GetLength()
	e := exponentFor(length)
	mask := (uint64(1) << uint(e)) - 1
	if cap.Base&mask != 0 || length&mask != 0 {
		return false
	}

	windowShift := uint(e + c128MantissaBits)
	cursorWindow := newCursor >> windowShift
	baseWindow := cap.Base >> windowShift
	topWindow := (cap.Base + length) >> windowShift

	if d := int64(baseWindow) - int64(cursorWindow); d < -1 || d > 1 {
		return false
	}
	if d := int64(topWindow) - int64(cursorWindow); d < -1 || d > 1 {
		return false
	}
	return true
}

func (c *Compressed128) RepresentableWhenSealed(cap capvalue.Capability, newCursor uint64) bool {
	return newCursor == cap.Cursor && c.Representable(cap, newCursor)
}

func (c *Compressed128) AlignMaskForLength(length uint64) uint64 {
	e := exponentFor(length)
	return (uint64(1) << uint(e)) - 1
}

func (c *Compressed128) RoundLengthUp(length uint64) uint64 {
	mask := c.AlignMaskForLength(length)
	return (length + mask) &^ mask
}
