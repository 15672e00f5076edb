package capencoding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/emu/capencoding"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

func TestByNameDispatchesAllThreeCodecs(t *testing.T) {
	for _, name := range []string{"compressed128", "magic128", "uncompressed256"} {
		c, ok := capencoding.ByName(name)
		require.Truef(t, ok, "codec %q should be registered", name)
		require.Equal(t, name, c.Name())
	}
	_, ok := capencoding.ByName("not-a-codec")
	require.False(t, ok)
}

func TestUncompressed256RoundTrip(t *testing.T) {
	c := capencoding.NewUncompressed256()
	in := capvalue.Capability{
		Tag:    true,
		Base:   0x1000,
		Top:    capvalue.Top65FromUint64(0x2000),
		Cursor: 0x1800,
		Perms:  capvalue.PermLoad | capvalue.PermStore,
		UPerms: 0x3,
		OType:  42,
	}
	b := c.Compress(in)
	require.Len(t, b, c.Width())
	out := c.Decompress(b, true)
	require.Equal(t, in.Base, out.Base)
	require.Equal(t, in.Cursor, out.Cursor)
	require.Equal(t, in.Perms, out.Perms)
	require.Equal(t, in.UPerms, out.UPerms)
	require.Equal(t, in.OType, out.OType)
	require.Equal(t, in.GetLength(), out.GetLength())
}

func TestUncompressed256ZeroBytesDecodeUnsealedNoPerms(t *testing.T) {
	c := capencoding.NewUncompressed256()
	out := c.Decompress(make([]byte, 32), false)
	require.Equal(t, capvalue.Permissions(0), out.Perms)
	require.True(t, out.OType.IsUnsealed())
}

func TestMagic128RepresentableAlways(t *testing.T) {
	c := capencoding.NewMagic128()
	cap := capvalue.Capability{Tag: true, Base: 7, Top: capvalue.Top65FromUint64(19), Cursor: 10}
	require.True(t, c.Representable(cap, 0xffffffffffffffff))
	require.True(t, c.RepresentableWhenSealed(cap, 0))
}

func TestMagic128SideBandRoundTrip(t *testing.T) {
	c := capencoding.NewMagic128()
	in := capvalue.Capability{
		Tag:    true,
		Base:   0x4000,
		Top:    capvalue.Top65FromUint64(0x4100),
		Cursor: 0x4010,
		Perms:  capvalue.PermExecute,
		UPerms: 0x1,
		OType:  capvalue.OTypeUnsealed,
	}
	sb := c.EncodeSideBand(in)
	require.Equal(t, uint64(0x100), sb.Length)
	require.False(t, sb.Sealed)

	out := c.DecodeSideBand(in.Base, in.Cursor, true, sb)
	require.Equal(t, in.Base, out.Base)
	require.Equal(t, in.Cursor, out.Cursor)
	require.Equal(t, in.Perms, out.Perms)
	require.Equal(t, in.GetLength(), out.GetLength())
}

func TestCompressed128UntaggedRoundTripsPesbtVerbatim(t *testing.T) {
	c := capencoding.NewCompressed128()
	in := capvalue.Capability{Tag: false, Pesbt: 0xdeadbeefcafef00d, Cursor: 0x123}
	b := c.Compress(in)
	out := c.Decompress(b, false)
	require.Equal(t, in.Pesbt, out.Pesbt)
	require.Equal(t, in.Cursor, out.Cursor)
	require.False(t, out.Tag)
}

func TestCompressed128MaximalBoundsRoundTrips(t *testing.T) {
	c := capencoding.NewCompressed128()
	in := capvalue.MaxPermissionsCapability(0x8000000000000000)
	b := c.Compress(in)
	out := c.Decompress(b, true)
	require.Equal(t, uint64(0), out.Base)
	require.True(t, out.Top.Overflow)
	require.Equal(t, in.Perms, out.Perms)
	require.Equal(t, in.UPerms, out.UPerms)
	require.Equal(t, in.Cursor, out.Cursor)
}

func TestCompressed128SmallCapabilityRoundTrips(t *testing.T) {
	c := capencoding.NewCompressed128()
	base := uint64(0x10000)
	length := uint64(0x100)
	in := capvalue.Capability{
		Tag:    true,
		Base:   base,
		Top:    capvalue.Top65FromUint64(base + length),
		Cursor: base + 0x10,
		Perms:  capvalue.PermLoad,
		OType:  capvalue.OTypeUnsealed,
	}
	require.True(t, c.Representable(in, in.Cursor))
	b := c.Compress(in)
	out := c.Decompress(b, true)
	require.Equal(t, in.Base, out.Base)
	require.Equal(t, in.GetLength(), out.GetLength())
	require.Equal(t, in.Cursor, out.Cursor)
	require.Equal(t, in.Perms, out.Perms)
}

func TestCompressed128RepresentableRejectsFarCursor(t *testing.T) {
	c := capencoding.NewCompressed128()
	base := uint64(0x10000)
	length := uint64(0x100)
	in := capvalue.Capability{
		Tag:  true,
		Base: base,
		Top:  capvalue.Top65FromUint64(base + length),
	}
	require.False(t, c.Representable(in, base+length+0x10_0000_0000))
}

func TestCompressed128AlignMaskGrowsWithLength(t *testing.T) {
	c := capencoding.NewCompressed128()
	small := c.AlignMaskForLength(0x10)
	large := c.AlignMaskForLength(0x10_0000_0000)
	require.LessOrEqual(t, small, large)
}
