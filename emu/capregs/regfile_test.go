package capregs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/emu/capregs"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

func TestNewFileResetShape(t *testing.T) {
	f := capregs.NewFile(0x4000)
	require.True(t, f.PCC.Tag)
	require.True(t, f.PCC.Top.Overflow)
	require.Equal(t, uint64(0x4000), f.PCC.Cursor)
	require.True(t, f.DDC.Tag)
	require.True(t, f.GPCR[0].IsNull())
	require.Equal(t, uint64(0), f.GetGPR(3))
}

func TestSetCapRegGetCapReg(t *testing.T) {
	f := capregs.NewFile(0)
	cap := capvalue.MaxPermissionsCapability(0x10)
	f.SetCapReg(5, cap)
	require.Equal(t, cap, f.GetCapReg(5))
}

func TestClearRegClearsDDCAndGeneralRegisters(t *testing.T) {
	f := capregs.NewFile(0)
	full := capvalue.MaxPermissionsCapability(1)
	for i := 0; i < 32; i++ {
		f.SetCapReg(i, full)
	}
	f.DDC = full

	f.ClearReg(0x1) // bit 0: clears DDC only
	require.True(t, f.DDC.IsNull())
	require.False(t, f.GetCapReg(1).IsNull())

	f.ClearReg(1 << 5) // bit 5: clears general register 5
	require.True(t, f.GetCapReg(5).IsNull())
	require.False(t, f.GetCapReg(4).IsNull())
	require.False(t, f.GetCapReg(0).IsNull(), "register 0 is unreachable through ClearReg")
}

func TestResetClearsCause(t *testing.T) {
	f := capregs.NewFile(0)
	f.Cause = capregs.CapCause{ExcCode: 1, RegNum: 2}
	f.Reset(0x8000)
	require.Equal(t, capregs.CapCause{}, f.Cause)
	require.Equal(t, uint64(0x8000), f.PCC.Cursor)
}
