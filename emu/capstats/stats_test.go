package capstats_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/emu/capstats"
)

func TestNewRegistryRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := capstats.NewRegistry(reg)
	require.NotNil(t, r)

	r.ExceptionRaised(3)
	r.CapRead()
	r.CapReadTagged()
	r.CapWrite()
	r.CapWriteTagged()
	r.Sealed()
	r.Unsealed()
	r.CCalled()
	r.Cleared(16)
	r.ImpreciseSetBounds()
	r.UnrepresentableCap()
	r.Instruction(true)
	r.Instruction(false)
	r.IncOffset(128)
	r.SetOffset(4)
	r.GetPCCSetOffset(1)
	r.FromPtr(65536)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNoopDiscardsEverything(t *testing.T) {
	var o capstats.Observer = capstats.Noop{}
	o.ExceptionRaised(1)
	o.CapRead()
	o.CapReadTagged()
	o.Instruction(true)
	o.IncOffset(10)
}
