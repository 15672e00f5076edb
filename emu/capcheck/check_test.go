package capcheck_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/emu/capcheck"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

func TestTagCheckedBeforeAnythingElse(t *testing.T) {
	// untagged and would also fail perm/bounds; tag must win.
	cap := capvalue.Capability{Tag: false}
	e := capcheck.Bounds(cap, capvalue.PermLoad, 0, 1, 3)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcTag, e.Code)
	require.Equal(t, uint8(3), e.RegNum)
}

func TestSealCheckedBeforePerm(t *testing.T) {
	cap := capvalue.SetSealed(capvalue.Capability{Tag: true}, 5)
	e := capcheck.Bounds(cap, capvalue.PermLoad, 0, 1, 1)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcSeal, e.Code)
}

func TestPermCheckedBeforeBounds(t *testing.T) {
	cap := capvalue.Capability{
		Tag:   true,
		Base:  0,
		Top:   capvalue.Top65FromUint64(4),
		OType: capvalue.OTypeUnsealed,
	}
	// out of bounds AND missing PermLoad; perm should be reported.
	e := capcheck.Bounds(cap, capvalue.PermLoad, 100, 1, 2)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcPermLoad, e.Code)
}

func TestBoundsPassesWithinRange(t *testing.T) {
	cap := capvalue.Capability{
		Tag:   true,
		Base:  0x100,
		Top:   capvalue.Top65FromUint64(0x200),
		Perms: capvalue.PermLoad,
		OType: capvalue.OTypeUnsealed,
	}
	require.Nil(t, capcheck.Bounds(cap, capvalue.PermLoad, 0x150, 0x10, 0))
}

func TestBoundsFailsPastTop(t *testing.T) {
	cap := capvalue.Capability{
		Tag:   true,
		Base:  0x100,
		Top:   capvalue.Top65FromUint64(0x200),
		Perms: capvalue.PermLoad,
		OType: capvalue.OTypeUnsealed,
	}
	e := capcheck.Bounds(cap, capvalue.PermLoad, 0x1f8, 0x10, 0)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcLength, e.Code)
}

func TestAlignmentRejectsMisalignedAddress(t *testing.T) {
	e := capcheck.Alignment(0x13, 8, 0)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcUnaligned, e.Code)
	require.Nil(t, capcheck.Alignment(0x18, 8, 0))
}

func TestCCallOperandsRequireMatchingSealedType(t *testing.T) {
	code := capvalue.Capability{
		Tag:   true,
		Base:  0,
		Top:   capvalue.Top65FromUint64(0x1000),
		Perms: capvalue.PermExecute | capvalue.PermCCall,
		OType: 7,
	}
	data := capvalue.Capability{
		Tag:   true,
		Base:  0,
		Top:   capvalue.Top65FromUint64(0x1000),
		Perms: capvalue.PermCCall,
		OType: 7,
	}
	require.Nil(t, capcheck.CCallOperands(code, data, 1, 2))

	data.OType = 8
	e := capcheck.CCallOperands(code, data, 1, 2)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcType, e.Code)
}

func TestCCallOperandsRejectsExecutableData(t *testing.T) {
	code := capvalue.Capability{
		Tag: true, Top: capvalue.Top65FromUint64(0x1000),
		Perms: capvalue.PermExecute | capvalue.PermCCall, OType: 7,
	}
	data := capvalue.Capability{
		Tag: true, Top: capvalue.Top65FromUint64(0x1000),
		Perms: capvalue.PermCCall | capvalue.PermExecute, OType: 7,
	}
	e := capcheck.CCallOperands(code, data, 1, 2)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcPermExecute, e.Code)
	require.Equal(t, uint8(2), e.RegNum)
}

func TestUnsealerRejectsTypeOutOfBounds(t *testing.T) {
	unsealer := capvalue.Capability{
		Tag:   true,
		Base:  0,
		Top:   capvalue.Top65FromUint64(4),
		Perms: capvalue.PermUnseal,
		OType: capvalue.OTypeUnsealed,
	}
	require.Nil(t, capcheck.Unsealer(unsealer, 2, 1))

	e := capcheck.Unsealer(unsealer, 100, 1)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcLength, e.Code)
}

func TestSentryJumpOperandRequiresSentryOrUnsealed(t *testing.T) {
	target := capvalue.MakeSealedEntry(capvalue.Capability{
		Tag:   true,
		Top:   capvalue.Top65FromUint64(0x10),
		Perms: capvalue.PermExecute,
	})
	require.Nil(t, capcheck.SentryJumpOperand(target, 0))

	sealed := capvalue.SetSealed(target, 3)
	e := capcheck.SentryJumpOperand(sealed, 0)
	require.NotNil(t, e)
	require.Equal(t, capcheck.ExcSeal, e.Code)
}
