package capencoding

import (
	"encoding/binary"

	"github.com/rcornwell/cherimips/emu/capvalue"
)

// SideBand is the out-of-band (otype, perms, sealed, length) tuple magic128
// side-carries next to the tag bit, since its 128 in-line bits only hold
// base and cursor. capcpu's LoadCap/StoreCap keep it in a per-hart map
// keyed by address, alongside the ordinary tag bit.
type SideBand struct {
	OType  capvalue.OType
	Perms  capvalue.Permissions
	UPerms capvalue.UPerms
	Sealed bool
	Length uint64
}

// SideBandCodec is implemented by codecs (magic128) whose Decompress cannot
// be complete from in-line bytes alone.
type SideBandCodec interface {
	Codec
	EncodeSideBand(cap capvalue.Capability) SideBand
	DecodeSideBand(base, cursor uint64, tag bool, sb SideBand) capvalue.Capability
}

// Magic128 stores base and cursor in-line and the rest out-of-band,
// trading auxiliary storage for exact (non-lossy) bounds.
type Magic128 struct{}

// NewMagic128 constructs the magic128 codec.
func NewMagic128() *Magic128 { return &Magic128{} }

func (*Magic128) Name() string { return "magic128" }

func (*Magic128) Width() int { return 16 }

// Compress encodes only base and cursor; callers needing the full
// capability must also keep the SideBand from EncodeSideBand, as capcpu's
// StoreCap does.
func (*Magic128) Compress(cap capvalue.Capability) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], cap.Base)
	binary.LittleEndian.PutUint64(out[8:16], cap.Cursor)
	return out
}

// Decompress reconstructs base and cursor only; it returns a zero-length,
// unsealed, no-permission capability for the remaining fields since those
// live in the SideBand. Use DecodeSideBand for a complete reconstruction.
func (*Magic128) Decompress(b []byte, tag bool) capvalue.Capability {
	base := binary.LittleEndian.Uint64(b[0:8])
	cursor := binary.LittleEndian.Uint64(b[8:16])
	return capvalue.Capability{
		Tag:    tag,
		Base:   base,
		Top:    capvalue.Top65FromUint64(base),
		Cursor: cursor,
		OType:  capvalue.OTypeUnsealed,
	}
}

func (*Magic128) EncodeSideBand(cap capvalue.Capability) SideBand {
	_, sealed := capvalue.IsSealedWithType(cap)
	sealed = sealed || cap.OType.IsSentry()
	return SideBand{
		OType:  cap.OType,
		Perms:  cap.Perms,
		UPerms: cap.UPerms,
		Sealed: sealed,
		Length: cap.GetLength(),
	}
}

func (*Magic128) DecodeSideBand(base, cursor uint64, tag bool, sb SideBand) capvalue.Capability {
	top := base + sb.Length
	var t capvalue.Top65
	if sb.Length == ^uint64(0) {
		t = capvalue.Top65Max
	} else {
		t = capvalue.Top65FromUint64(top)
	}
	return capvalue.Capability{
		Tag:    tag,
		Base:   base,
		Top:    t,
		Cursor: cursor,
		Perms:  sb.Perms,
		UPerms: sb.UPerms,
		OType:  sb.OType,
	}
}

// Representable is always true: magic128 stores bounds exactly, out-of-band.
func (*Magic128) Representable(capvalue.Capability, uint64) bool { return true }

// RepresentableWhenSealed is always true for the same reason.
func (*Magic128) RepresentableWhenSealed(capvalue.Capability, uint64) bool { return true }

// AlignMaskForLength: no alignment is required; any length is exact.
func (*Magic128) AlignMaskForLength(uint64) uint64 { return 0 }

// RoundLengthUp is the identity: every length is already representable.
func (*Magic128) RoundLengthUp(length uint64) uint64 { return length }
