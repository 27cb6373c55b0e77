package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleback/whaleback/internal/market"
)

func day(n int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func i64(v int64) *int64 { return &v }

func row(n int, individual, inst, foreign, pension int64) market.InvestorFlow {
	return market.InvestorFlow{
		TradeDate:      day(n),
		Ticker:         "000660",
		IndividualNet:  i64(individual),
		InstitutionNet: i64(inst),
		ForeignNet:     i64(foreign),
		PensionNet:     i64(pension),
	}
}

func TestComputeRetailContrarianNeutralHistory(t *testing.T) {
	// Fewer than 60 days: Z stays 0.
	var flows []market.InvestorFlow
	for n := 0; n < 30; n++ {
		flows = append(flows, row(n, 1_000_000_000, 0, 0, 0))
	}

	res := ComputeRetailContrarian(flows, 5_000_000_000, 20)

	assert.Equal(t, 0.0, res.RetailZ)
	assert.Equal(t, "neutral", res.Signal)
	assert.Equal(t, 20, res.LookbackDays)
	// net over 20 days = 20e9, denominator 5e9*20 = 100e9
	assert.InDelta(t, 0.2, res.RetailIntensity, 1e-9)
	assert.Equal(t, 1.0, res.RetailConsistency)
}

func TestComputeRetailContrarianExtremeBuying(t *testing.T) {
	// 80 days of mild flows then a 20-day retail buying spike.
	var flows []market.InvestorFlow
	for n := 0; n < 80; n++ {
		v := int64(100_000_000)
		if n%2 == 0 {
			v = -v
		}
		flows = append(flows, row(n, v, 0, 0, 0))
	}
	for n := 80; n < 100; n++ {
		flows = append(flows, row(n, 4_000_000_000, 0, 0, 0))
	}

	res := ComputeRetailContrarian(flows, 5_000_000_000, 20)

	assert.Greater(t, res.RetailZ, 2.0)
	assert.Equal(t, "extreme_buying", res.Signal)
}

func TestComputeRetailContrarianEmpty(t *testing.T) {
	res := ComputeRetailContrarian(nil, 1e9, 20)
	assert.Equal(t, "neutral", res.Signal)
	assert.Equal(t, 0, res.LookbackDays)
}

func TestComputeSmartDumbDivergence(t *testing.T) {
	// Smart money buying hard while retail sells.
	var flows []market.InvestorFlow
	for n := 0; n < 20; n++ {
		flows = append(flows, row(n, -2_000_000_000, 1_500_000_000, 1_500_000_000, 500_000_000))
	}

	res := ComputeSmartDumbDivergence(flows, 2_000_000_000, 20)

	// smart = 70e9 / 40e9 = 1.75, dumb = -40e9 / 40e9 = -1.0
	assert.InDelta(t, 1.75, res.SmartRatio, 1e-9)
	assert.InDelta(t, -1.0, res.DumbRatio, 1e-9)
	assert.InDelta(t, 2.75, res.DivergenceScore, 1e-9)
	assert.Equal(t, "smart_accumulation", res.Signal)
}

func TestComputeSmartDumbDivergenceMixed(t *testing.T) {
	var flows []market.InvestorFlow
	for n := 0; n < 20; n++ {
		flows = append(flows, row(n, 10_000_000, 10_000_000, 0, 0))
	}
	res := ComputeSmartDumbDivergence(flows, 5_000_000_000, 20)
	assert.Equal(t, "mixed", res.Signal)

	assert.Equal(t, "mixed", ComputeSmartDumbDivergence(nil, 1e9, 20).Signal)
}

func TestComputeFlowMomentumShiftBullishReversal(t *testing.T) {
	// 55 days of institutional selling then 5 days of buying.
	var flows []market.InvestorFlow
	for n := 0; n < 55; n++ {
		flows = append(flows, row(n, 0, -1_000_000_000, 0, 0))
	}
	for n := 55; n < 60; n++ {
		flows = append(flows, row(n, 0, 3_000_000_000, 0, 0))
	}

	res := ComputeFlowMomentumShift(flows, 5, 60)

	inst := res.Components["institution_net"]
	assert.Equal(t, "bullish_reversal", inst.ReversalType)
	assert.Greater(t, inst.Strength, 0.0)
	assert.Greater(t, res.ShiftScore, 20.0)
	assert.Contains(t, res.Signal, "bullish")
}

func TestComputeFlowMomentumShiftNoReversal(t *testing.T) {
	var flows []market.InvestorFlow
	for n := 0; n < 60; n++ {
		flows = append(flows, row(n, 0, 1_000_000_000, 500_000_000, 100_000_000))
	}

	res := ComputeFlowMomentumShift(flows, 5, 60)

	assert.Equal(t, 0.0, res.ShiftScore)
	assert.Equal(t, "no_shift", res.Signal)
	for _, c := range res.Components {
		assert.Equal(t, "none", c.ReversalType)
	}
}

func TestComputeFlowMomentumShiftShortHistory(t *testing.T) {
	flows := []market.InvestorFlow{row(0, 0, 1, 1, 1)}
	res := ComputeFlowMomentumShift(flows, 5, 60)
	assert.Equal(t, "no_shift", res.Signal)
	require.Len(t, res.Components, 3)
}
