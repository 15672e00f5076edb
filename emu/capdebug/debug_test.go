package capdebug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/config/capconfig"
	"github.com/rcornwell/cherimips/emu/capcpu"
	"github.com/rcornwell/cherimips/emu/capdebug"
	"github.com/rcornwell/cherimips/emu/capencoding"
	"github.com/rcornwell/cherimips/emu/capmemory"
	"github.com/rcornwell/cherimips/emu/capstats"
	"github.com/rcornwell/cherimips/emu/capvalue"
)

func newHart(t *testing.T) *capcpu.Hart {
	t.Helper()
	codec, _ := capencoding.ByName("uncompressed256")
	return capcpu.NewHart(0, capmemory.New(4096), codec, capconfig.Policy{}, capstats.Noop{}, nil)
}

func TestIntegerTableGPRReadWrite(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)
	it.Write(5, 0xdeadbeef)
	v, ok := it.Read(5)
	require.True(t, ok)
	require.Equal(t, uint64(0xdeadbeef), v)
}

func TestIntegerTableOutOfRangeIgnored(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)
	_, ok := it.Read(1000)
	require.False(t, ok)
	it.Write(1000, 1) // must not panic
}

func TestIntegerTablePCReadsAndWritesPCCCursor(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)
	h.Regs.PCC.Cursor = 0x4000
	v, ok := it.Read(capdebug.IntTablePC)
	require.True(t, ok)
	require.Equal(t, uint64(0x4000), v)

	it.Write(capdebug.IntTablePC, 0x8000)
	require.Equal(t, uint64(0x8000), h.Regs.PCC.Cursor)
}

func TestIntegerTableLoHiBadVAddrRoundTrip(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)

	it.Write(capdebug.IntTableLO, 0x1111)
	it.Write(capdebug.IntTableHI, 0x2222)
	it.Write(capdebug.IntTableBadVAddr, 0x3333)
	lo, _ := it.Read(capdebug.IntTableLO)
	hi, _ := it.Read(capdebug.IntTableHI)
	bad, _ := it.Read(capdebug.IntTableBadVAddr)
	require.Equal(t, uint64(0x1111), lo)
	require.Equal(t, uint64(0x2222), hi)
	require.Equal(t, uint64(0x3333), bad)
}

func TestIntegerTableStatusAndCauseWritesAreMasked(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)

	it.Write(capdebug.IntTableStatus, 0xffffffff)
	status, _ := it.Read(capdebug.IntTableStatus)
	require.Equal(t, uint64(0xffffffff)&0x0000ff57, status)

	it.Write(capdebug.IntTableCause, 0xffffffff)
	cause, _ := it.Read(capdebug.IntTableCause)
	require.Equal(t, uint64(0xffffffff)&0x00000300, cause)
}

func TestIntegerTableFPRFRModeIs64BitPerRegister(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, true, nil)

	it.Write(capdebug.IntTableFPRBase+3, 0x1122334455667788)
	v, ok := it.Read(capdebug.IntTableFPRBase + 3)
	require.True(t, ok)
	require.Equal(t, uint64(0x1122334455667788), v)
}

func TestIntegerTableFPRNonFRModePairsHalves(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)

	it.Write(capdebug.IntTableFPRBase+4, 0xaaaaaaaa)   // even slot: low half of pair
	it.Write(capdebug.IntTableFPRBase+5, 0xbbbbbbbb)   // odd slot: high half of same pair
	low, _ := it.Read(capdebug.IntTableFPRBase + 4)
	high, _ := it.Read(capdebug.IntTableFPRBase + 5)
	require.Equal(t, uint64(0xaaaaaaaa), low)
	require.Equal(t, uint64(0xbbbbbbbb), high)
}

func TestIntegerTableFCR31MasksToRWBitsOnly(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)

	it.Write(capdebug.IntTableFCR31, 0xffffffff)
	v, ok := it.Read(capdebug.IntTableFCR31)
	require.True(t, ok)
	require.Equal(t, uint64(0xffffffff)&0x0183ffff, v)
}

func TestIntegerTableFCR0WriteIgnoredButReadable(t *testing.T) {
	h := newHart(t)
	it := capdebug.NewIntegerTable(h, false, nil)

	before, ok := it.Read(capdebug.IntTableFCR0)
	require.True(t, ok)
	it.Write(capdebug.IntTableFCR0, 0xdeadbeef)
	after, ok := it.Read(capdebug.IntTableFCR0)
	require.True(t, ok)
	require.Equal(t, before, after)
}

func TestCapTableGPCRReadWrite(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	cap := capvalue.MaxPermissionsCapability(0x40)
	ct.Write(3, cap)
	got, ok := ct.Read(3)
	require.True(t, ok)
	require.Equal(t, cap, got)
}

func TestCapTableHwrSlotsAddressDDCAndPCC(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	ddc, ok := ct.Read(capdebug.CapTableHwrBase)
	require.True(t, ok)
	require.Equal(t, h.Regs.DDC, ddc)

	pcc, ok := ct.Read(capdebug.CapTableHwrBase + 1)
	require.True(t, ok)
	require.Equal(t, h.Regs.PCC, pcc)
}

func TestCapTableTagBitsetReflectsTaggedRegisters(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	ct.Write(0, capvalue.MaxPermissionsCapability(0))
	ct.Write(1, capvalue.NullCapability())

	bitset, ok := ct.Read(capdebug.CapTableTagBitsetIndex)
	require.True(t, ok)
	require.NotZero(t, bitset.Cursor&1)
	require.Zero(t, bitset.Cursor & (1 << 1))
}

func TestCapTableWriteToTagBitsetIgnored(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	before, _ := ct.Read(capdebug.CapTableTagBitsetIndex)
	ct.Write(capdebug.CapTableTagBitsetIndex, capvalue.MaxPermissionsCapability(9))
	after, _ := ct.Read(capdebug.CapTableTagBitsetIndex)
	require.Equal(t, before, after)
}

func TestDumpLineReportsTagAndFields(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	ct.Write(2, capvalue.MaxPermissionsCapability(0x40))

	line := ct.DumpLine(2)
	require.True(t, strings.HasPrefix(line, "T "))
	require.Contains(t, line, "0000000000000040")
}

func TestDumpLineUntaggedStartsWithDash(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	ct.Write(2, capvalue.NullCapability())

	line := ct.DumpLine(2)
	require.True(t, strings.HasPrefix(line, "- "))
}

func TestDumpLineOutOfRangeIsEmpty(t *testing.T) {
	h := newHart(t)
	ct := capdebug.NewCapTable(h, nil)
	require.Empty(t, ct.DumpLine(1000))
}
