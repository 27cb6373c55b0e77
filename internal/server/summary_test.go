package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleback/whaleback/internal/modules/composite"
)

func fptr(v float64) *float64 { return &v }

func TestBuildMarketSummary(t *testing.T) {
	rows := []composite.Snapshot{
		{Ticker: "005930", CompositeScore: fptr(82.0)},
		{Ticker: "000660", CompositeScore: fptr(74.0)},
		{Ticker: "105560", CompositeScore: fptr(40.0)},
		{Ticker: "035420", CompositeScore: fptr(18.0)},
		{Ticker: "900001"},
	}
	sectorMap := map[string]string{
		"005930": "전기전자",
		"000660": "전기전자",
		"105560": "금융",
	}

	summary := buildMarketSummary(rows, sectorMap)

	assert.Equal(t, 5, summary.TickerCount)
	assert.Equal(t, 1, summary.SignalCounts["strong_buy"])
	assert.Equal(t, 1, summary.SignalCounts["buy"])
	assert.Equal(t, 1, summary.SignalCounts["neutral"])
	assert.Equal(t, 1, summary.SignalCounts["strong_sell"])
	assert.Equal(t, 1, summary.SignalCounts["unknown"])

	// Two of four scored tickers at or above 50.
	assert.Equal(t, 0.5, summary.Breadth)
	require.NotNil(t, summary.AvgComposite)
	assert.Equal(t, 53.5, *summary.AvgComposite)

	require.Len(t, summary.TopSectors, 2)
	assert.Equal(t, "전기전자", summary.TopSectors[0].Sector)
	assert.Equal(t, 78.0, summary.TopSectors[0].AvgComposite)
	assert.Equal(t, 2, summary.TopSectors[0].TickerCount)
	assert.Equal(t, "금융", summary.TopSectors[1].Sector)
}

func TestBuildMarketSummaryAllUnscored(t *testing.T) {
	summary := buildMarketSummary([]composite.Snapshot{{Ticker: "A"}, {Ticker: "B"}}, nil)
	assert.Nil(t, summary.AvgComposite)
	assert.Zero(t, summary.Breadth)
	assert.Equal(t, 2, summary.SignalCounts["unknown"])
	assert.Empty(t, summary.TopSectors)
}
