package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleback/whaleback/internal/market"
	"github.com/whaleback/whaleback/internal/modules/sectorflow"
	"github.com/whaleback/whaleback/internal/modules/trend"
)

func fptr(v float64) *float64 { return &v }

func TestComputeSectorMedians(t *testing.T) {
	sectorMap := map[string]string{
		"005930": "전기전자",
		"000660": "전기전자",
		"035420": "전기전자",
		"105560": "금융",
		"900001": "",
	}
	funds := []market.Fundamental{
		{Ticker: "005930", PBR: fptr(1.2), PER: fptr(12.0)},
		{Ticker: "000660", PBR: fptr(1.8), PER: fptr(20.0)},
		{Ticker: "035420", PBR: fptr(3.0), PER: fptr(-4.0)}, // negative PER excluded
		{Ticker: "105560", PBR: fptr(0.5), PER: fptr(6.0)},
		{Ticker: "900001", PBR: fptr(9.9), PER: fptr(9.9)}, // no sector, excluded
	}

	medians := computeSectorMedians(funds, sectorMap)
	require.Len(t, medians, 2)

	elec := medians["전기전자"]
	require.NotNil(t, elec.MedianPBR)
	// Upper-middle element of [1.2 1.8 3.0].
	assert.Equal(t, 1.8, *elec.MedianPBR)
	require.NotNil(t, elec.MedianPER)
	// Upper-middle element of [12 20].
	assert.Equal(t, 20.0, *elec.MedianPER)

	fin := medians["금융"]
	require.NotNil(t, fin.MedianPBR)
	assert.Equal(t, 0.5, *fin.MedianPBR)
}

func TestComputeSectorMediansEmpty(t *testing.T) {
	assert.Empty(t, computeSectorMedians(nil, map[string]string{"005930": "전기전자"}))
}

func TestMidElement(t *testing.T) {
	assert.Nil(t, midElement(nil))
	assert.Equal(t, 3.0, *midElement([]float64{5, 1, 3}))
	assert.Equal(t, 3.0, *midElement([]float64{1, 2, 3, 4}))
}

func TestFillRSPercentiles(t *testing.T) {
	snaps := []*trend.Snapshot{
		{Ticker: "A", RSVsKospi20d: fptr(0.90)},
		{Ticker: "B", RSVsKospi20d: fptr(1.00)},
		{Ticker: "C", RSVsKospi20d: fptr(1.10)},
		{Ticker: "D", RSVsKospi20d: fptr(1.20)},
		{Ticker: "E"},
	}

	fillRSPercentiles(snaps)

	require.NotNil(t, snaps[0].RSPercentile)
	assert.Equal(t, 0, *snaps[0].RSPercentile)
	assert.Equal(t, 25, *snaps[1].RSPercentile)
	assert.Equal(t, 50, *snaps[2].RSPercentile)
	assert.Equal(t, 75, *snaps[3].RSPercentile)
	assert.Nil(t, snaps[4].RSPercentile)
}

func TestSectorFlowBonuses(t *testing.T) {
	sectorMap := map[string]string{
		"005930": "전기전자",
		"000660": "전기전자",
		"105560": "금융",
	}
	flows := []sectorflow.Flow{
		{Sector: "전기전자", InvestorType: "institution_net", Signal: "strong_accumulation"},
		{Sector: "전기전자", InvestorType: "foreign_net", Signal: "mild_accumulation"},
		{Sector: "금융", InvestorType: "pension_net", Signal: "mild_accumulation"},
		{Sector: "금융", InvestorType: "foreign_net", Signal: "distribution"},
	}

	bonuses := sectorFlowBonuses(flows, sectorMap)

	// 15 + 5 capped at 15.
	assert.Equal(t, 15.0, bonuses["005930"])
	assert.Equal(t, 15.0, bonuses["000660"])
	assert.Equal(t, 5.0, bonuses["105560"])
	assert.NotContains(t, bonuses, "035420")
}

func TestSectorFlowBonusesCumulativeCap(t *testing.T) {
	sectorMap := map[string]string{"105560": "금융"}
	flows := []sectorflow.Flow{
		{Sector: "금융", Signal: "mild_accumulation"},
		{Sector: "금융", Signal: "mild_accumulation"},
		{Sector: "금융", Signal: "mild_accumulation"},
		{Sector: "금융", Signal: "mild_accumulation"},
	}

	bonuses := sectorFlowBonuses(flows, sectorMap)
	assert.Equal(t, 15.0, bonuses["105560"])
}
