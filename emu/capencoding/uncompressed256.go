package capencoding

import (
	"encoding/binary"
	"math/bits"

	"github.com/rcornwell/cherimips/emu/capvalue"
)

// Uncompressed256 stores base, cursor, length, otype and permissions
// directly across four 64-bit words, trading wire density for
// representability: every cursor position is representable, and
// RoundLengthUp is the identity. The length word holds GetLength, which
// saturates a length of 2^64 to 2^64-1, so a capability with base 0 and top
// 2^64 decodes with top 2^64-1. Word 0 bundles otype/perms/sealed with the
// otype field XORed with OTypeUnsealed, and word 3 holds the inverted
// length, so all-zero memory decodes as an unsealed capability with no
// permissions, base zero and length 2^64-1, rather than as a sealed or
// permission-carrying one.
//
// layout (little-endian words):
//
//	word0 = (otype^OTypeUnsealed)<<32 | perms16<<1 | sealedBit
//	word1 = cursor
//	word2 = base
//	word3 = ^length
type Uncompressed256 struct{}

// NewUncompressed256 constructs the uncompressed256 codec.
func NewUncompressed256() *Uncompressed256 { return &Uncompressed256{} }

func (*Uncompressed256) Name() string { return "uncompressed256" }

func (*Uncompressed256) Width() int { return 32 }

func (*Uncompressed256) Compress(cap capvalue.Capability) []byte {
	out := make([]byte, 32)

	perms16 := uint64(cap.Perms)&c128PermsMask | (uint64(cap.UPerms)&c128UPermsMask)<<12
	var sealedBit uint64
	if !cap.OType.IsUnsealed() {
		sealedBit = 1
	}
	word0 := uint64(cap.OType^capvalue.OTypeUnsealed)<<32 | perms16<<1 | sealedBit
	length := cap.GetLength()

	binary.LittleEndian.PutUint64(out[0:8], word0)
	binary.LittleEndian.PutUint64(out[8:16], cap.Cursor)
	binary.LittleEndian.PutUint64(out[16:24], cap.Base)
	binary.LittleEndian.PutUint64(out[24:32], ^length)
	return out
}

func (*Uncompressed256) Decompress(b []byte, tag bool) capvalue.Capability {
	word0 := binary.LittleEndian.Uint64(b[0:8])
	cursor := binary.LittleEndian.Uint64(b[8:16])
	base := binary.LittleEndian.Uint64(b[16:24])
	length := ^binary.LittleEndian.Uint64(b[24:32])

	otype := capvalue.OType(word0>>32) ^ capvalue.OTypeUnsealed
	perms16 := (word0 >> 1) & 0xffff
	perms := capvalue.Permissions(perms16 & c128PermsMask)
	uperms := capvalue.UPerms((perms16 >> 12) & c128UPermsMask)

	sum, carry := bits.Add64(base, length, 0)
	var top capvalue.Top65
	if carry != 0 {
		if sum == 0 {
			top = capvalue.Top65Max
		} else {
			// base+length overflowed 2^64 by more than exactly wrapping to
			// zero: not representable as an exact 65-bit top, clamp to max.
			top = capvalue.Top65Max
		}
	} else {
		top = capvalue.Top65FromUint64(sum)
	}

	return capvalue.Capability{
		Tag:    tag,
		Base:   base,
		Top:    top,
		Cursor: cursor,
		Perms:  perms,
		UPerms: uperms,
		OType:  otype,
	}
}

// Representable is always true: every field is stored exactly.
func (*Uncompressed256) Representable(capvalue.Capability, uint64) bool { return true }

// RepresentableWhenSealed is always true for the same reason.
func (*Uncompressed256) RepresentableWhenSealed(capvalue.Capability, uint64) bool { return true }

// AlignMaskForLength: no alignment is required; any length is exact.
func (*Uncompressed256) AlignMaskForLength(uint64) uint64 { return 0 }

// RoundLengthUp is the identity: every length is already representable.
func (*Uncompressed256) RoundLengthUp(length uint64) uint64 { return length }
