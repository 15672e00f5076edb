/*
   CHERI-MIPS capability coprocessor - abstract capability value.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package capvalue implements the pure, encoding-independent capability
// value: its fields, the sealing taxonomy, and the predicates instruction
// semantics and the check engine share.
package capvalue

// Permissions is the 12-bit architectural permission bitset.
type Permissions uint16

// Architectural permission bits.
const (
	PermGlobal Permissions = 1 << iota
	PermExecute
	PermLoad
	PermStore
	PermLoadCap
	PermStoreCap
	PermStoreLocal
	PermSeal
	PermUnseal
	PermCCall
	PermAccessSysRegs
	PermReserved
)

// AllPerms is every defined architectural permission bit.
const AllPerms = PermGlobal | PermExecute | PermLoad | PermStore | PermLoadCap |
	PermStoreCap | PermStoreLocal | PermSeal | PermUnseal | PermCCall |
	PermAccessSysRegs | PermReserved

// Has reports whether all bits of want are set in p.
func (p Permissions) Has(want Permissions) bool {
	return p&want == want
}

// HasAny reports whether at least one bit of want is set in p.
func (p Permissions) HasAny(want Permissions) bool {
	return p&want != 0
}

// UPerms is the software-defined user permission bitset (at most 4 bits).
type UPerms uint8

// UPermMask masks the 4 defined user permission bits.
const UPermMask UPerms = 0xf

// OType is the sealing object type.
type OType uint64

// Object-type space. The architecture reserves the top of the otype space
// for the unsealed sentinel, sentries, and two further reserved special
// types; everything at or below MaxSealedOType is an ordinary user seal.
const (
	OTypeWidth      = 14
	otypeMask  OType = (1 << OTypeWidth) - 1

	OTypeUnsealed   OType = otypeMask     // all bits set
	OTypeSentry     OType = otypeMask - 1
	OTypeReserved1  OType = otypeMask - 2
	OTypeReserved2  OType = otypeMask - 3
	MaxSealedOType  OType = otypeMask - 4
)

// IsUnsealed reports whether t is the unsealed sentinel.
func (t OType) IsUnsealed() bool { return t == OTypeUnsealed }

// IsSentry reports whether t marks a sealed-entry (sentry) capability.
func (t OType) IsSentry() bool { return t == OTypeSentry }

// IsReserved reports whether t is one of the reserved-special types.
func (t OType) IsReserved() bool { return t == OTypeReserved1 || t == OTypeReserved2 }

// IsUserSealed reports whether t is an ordinary user object type.
func (t OType) IsUserSealed() bool { return t <= MaxSealedOType }

// Top65 is a 65-bit unsigned magnitude in [0, 2^64]: every capability's top
// bound is exclusive, so a maximal-bounds capability must be able to
// express exactly 2^64, one past the largest uint64 address.
type Top65 struct {
	Overflow bool   // true iff the value is exactly 2^64 (Addr is then ignored)
	Addr     uint64 // the value, valid only when !Overflow
}

// Top65FromUint64 builds an exact (non-overflowing) Top65.
func Top65FromUint64(v uint64) Top65 { return Top65{Addr: v} }

// Top65Max is the maximal top value, 2^64.
var Top65Max = Top65{Overflow: true}

// Sub returns t - base as a 65-bit-safe unsigned difference, defined only
// for base <= t (the caller enforces the invariant base <= top <= 2^64).
func (t Top65) Sub(base uint64) Top65 {
	if t.Overflow {
		// 2^64 - base, represented as the bit pattern would be if computed
		// mod 2^65 and kept within a uint64 range of 0..2^64 inclusive.
		if base == 0 {
			return Top65Max
		}
		return Top65FromUint64(-base)
	}
	return Top65FromUint64(t.Addr - base)
}

// GreaterEqual reports whether t >= addr, treating addr as an ordinary
// 64-bit value and t's possible 2^64 overflow value as always greater.
func (t Top65) GreaterEqual(addr uint64) bool {
	if t.Overflow {
		return true
	}
	return t.Addr >= addr
}

// LessEqual is the complement comparison used by bounds checks.
func (t Top65) LessEqual(other Top65) bool {
	if other.Overflow {
		return true
	}
	if t.Overflow {
		return false
	}
	return t.Addr <= other.Addr
}

// Saturate returns t clamped into a uint64, UINT64_MAX standing in for 2^64.
func (t Top65) Saturate() uint64 {
	if t.Overflow {
		return ^uint64(0)
	}
	return t.Addr
}

// Capability is the canonical in-register, abstract-form capability value.
type Capability struct {
	Tag    bool
	Base   uint64
	Top    Top65
	Cursor uint64
	Perms  Permissions
	UPerms UPerms
	OType  OType

	// Pesbt is the preserved exact bit pattern cache. When Tag is false the
	// byte-level encoding this capability round-tripped through (if any)
	// must be reproduced verbatim; encodings that need scratch space for
	// that (compressed128) stash their raw word here.
	Pesbt uint64
}

// NullCapability is the untagged capability every general register and most
// hardware capability registers reset to: every field is zero except OType,
// which is the unsealed sentinel.
func NullCapability() Capability {
	return Capability{OType: OTypeUnsealed}
}

// IsNull reports whether c is the null-capability sentinel used by BEZ/BNZ:
// untagged, base zero, offset zero.
func (c Capability) IsNull() bool {
	return !c.Tag && c.Base == 0 && c.Offset() == 0
}

// MaxPermissionsCapability returns an all-permissions, maximal-bounds,
// unsealed, tagged capability with the given cursor - the shape PCC, DDC,
// KCC, KDC, EPCC and ErrorEPCC reset to.
func MaxPermissionsCapability(addr uint64) Capability {
	return Capability{
		Tag:    true,
		Base:   0,
		Top:    Top65Max,
		Cursor: addr,
		Perms:  AllPerms,
		UPerms: UPermMask,
		OType:  OTypeUnsealed,
	}
}

// Offset returns cursor - base, modulo 2^64.
func (c Capability) Offset() uint64 { return c.Cursor - c.Base }

// GetLength returns top - base saturated to uint64, UINT64_MAX standing in
// for a length of exactly 2^64.
func (c Capability) GetLength() uint64 { return c.Top.Sub(c.Base).Saturate() }

// GetLengthExact returns the exact 65-bit length.
func (c Capability) GetLengthExact() Top65 { return c.Top.Sub(c.Base) }

// InBounds reports whether [addr, addr+nbytes) lies within [base, top).
func InBounds(c Capability, addr, nbytes uint64) bool {
	if addr < c.Base {
		return false
	}
	end := addr + nbytes
	if end < addr {
		// address arithmetic wrapped past 2^64; only an end of exactly 2^64
		// (wrapped to 0) can still lie within a top of exactly 2^64.
		return c.Top.Overflow && end == 0
	}
	return c.Top.GreaterEqual(end)
}

// IsUnsealed reports whether c carries the unsealed otype.
func IsUnsealed(c Capability) bool { return c.OType.IsUnsealed() }

// IsSealedEntry reports whether c is a sentry (sealed-for-entry) capability.
func IsSealedEntry(c Capability) bool { return c.OType.IsSentry() }

// IsSealedWithType reports whether c is sealed with an ordinary user otype,
// and if so returns it.
func IsSealedWithType(c Capability) (OType, bool) {
	if c.OType.IsUserSealed() {
		return c.OType, true
	}
	return 0, false
}

// SetSealed returns a copy of c sealed with the given user object type.
func SetSealed(c Capability, t OType) Capability {
	c.OType = t
	return c
}

// MakeSealedEntry returns a copy of c sealed as a sentry.
func MakeSealedEntry(c Capability) Capability {
	c.OType = OTypeSentry
	return c
}

// SetUnsealed returns a copy of c with the unsealed otype.
func SetUnsealed(c Capability) Capability {
	c.OType = OTypeUnsealed
	return c
}

// AndPerms returns a copy of c with its architectural permissions masked.
// Only bits already defined in AllPerms may be cleared by the caller's mask;
// the caller is responsible for raising USRDEFINE on undefined mask bits.
func AndPerms(c Capability, mask Permissions) Capability {
	c.Perms &= mask
	return c
}

// Monotone reports whether derived is a legal monotonic derivation of
// source: its bounds may only shrink and its permissions may only lose
// bits. Used as an assertion by instruction semantics, never by the check
// engine (which only ever inspects a single capability's own fields).
func Monotone(source, derived Capability) bool {
	if derived.Base < source.Base {
		return false
	}
	if !derived.Top.LessEqual(source.Top) {
		return false
	}
	return derived.Perms&^source.Perms == 0
}
