package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleback/whaleback/internal/market"
)

func day(offset int) time.Time {
	return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func barsFixture(n int, base int64) []market.OhlcvBar {
	bars := make([]market.OhlcvBar, n)
	for i := range bars {
		bars[i] = market.OhlcvBar{
			TradeDate: day(i - n + 1),
			Ticker:    "005930",
			Close:     base + int64(i)*100,
			Volume:    int64(10000 + i),
		}
	}
	return bars
}

func TestAlignToIndex(t *testing.T) {
	stock := []float64{100, 101, 102, 103}
	dates := []string{"2025-04-01", "2025-04-02", "2025-04-03", "2025-04-04"}
	index := []indexPoint{
		{date: "2025-04-01", close: 2500},
		{date: "2025-04-03", close: 2520},
		{date: "2025-04-04", close: 2530},
		{date: "2025-04-07", close: 2540}, // no stock bar, dropped
	}

	s, idx, aligned := alignToIndex(stock, dates, index)
	assert.Equal(t, []float64{100, 102, 103}, s)
	assert.Equal(t, []float64{2500, 2520, 2530}, idx)
	assert.Equal(t, []string{"2025-04-01", "2025-04-03", "2025-04-04"}, aligned)
}

func TestCloseAt(t *testing.T) {
	bars := barsFixture(5, 70000)
	assert.Equal(t, bars[4].Close, closeAt(bars, day(0)))
	assert.Equal(t, bars[2].Close, closeAt(bars, day(-2)))
	assert.Equal(t, int64(0), closeAt(bars, day(5)))
	assert.Equal(t, int64(0), closeAt(nil, day(0)))
}

func TestRecentVolumes(t *testing.T) {
	current, previous := recentVolumes(nil)
	assert.Nil(t, current)
	assert.Nil(t, previous)

	// Shallow window: only the latest volume, no comparison point.
	current, previous = recentVolumes(barsFixture(10, 70000))
	require.NotNil(t, current)
	assert.Equal(t, int64(10009), *current)
	assert.Nil(t, previous)

	// Deep window: compare against the bar 40 sessions back.
	bars := barsFixture(60, 70000)
	current, previous = recentVolumes(bars)
	require.NotNil(t, current)
	require.NotNil(t, previous)
	assert.Equal(t, bars[59].Volume, *current)
	assert.Equal(t, bars[20].Volume, *previous)
}

func kospiFixture(n int) []indexPoint {
	kospi := make([]indexPoint, n)
	for i := range kospi {
		kospi[i] = indexPoint{date: day(i - n + 1).Format(dateLayout), close: 2500 + float64(i)}
	}
	return kospi
}

func TestComputeTrend(t *testing.T) {
	bars := barsFixture(70, 70000)
	kospi := kospiFixture(70)
	sectorMap := map[string]string{"005930": "전기전자"}

	snap := computeTrend("005930", day(0), bars, kospi, sectorMap)
	require.NotNil(t, snap)
	require.NotNil(t, snap.RSVsKospi20d)
	require.NotNil(t, snap.RSVsKospi60d)
	// Stock rose faster than the index, so relative strength exceeds 1.
	assert.Greater(t, *snap.RSVsKospi20d, 1.0)
	require.NotNil(t, snap.Sector)
	assert.Equal(t, "전기전자", *snap.Sector)
	assert.Nil(t, snap.RSPercentile)
}

func TestComputeTrendWindowGates(t *testing.T) {
	sectorMap := map[string]string{"005930": "전기전자"}

	// Seven aligned sessions: too short for any window, both readings stay nil.
	snap := computeTrend("005930", day(0), barsFixture(7, 70000), kospiFixture(7), sectorMap)
	require.NotNil(t, snap)
	assert.Nil(t, snap.RSVsKospi20d)
	assert.Nil(t, snap.RSVsKospi60d)

	// Thirty aligned sessions fill the 20d window but not the 60d one.
	snap = computeTrend("005930", day(0), barsFixture(30, 70000), kospiFixture(30), sectorMap)
	require.NotNil(t, snap)
	assert.NotNil(t, snap.RSVsKospi20d)
	assert.Nil(t, snap.RSVsKospi60d)
}

func TestComputeTrendTooShort(t *testing.T) {
	assert.Nil(t, computeTrend("005930", day(0), barsFixture(3, 70000), nil, nil))

	// Enough bars but nothing aligns with the index.
	assert.Nil(t, computeTrend("005930", day(0), barsFixture(30, 70000), []indexPoint{}, nil))
}

func TestComputeTechnicalTooShort(t *testing.T) {
	assert.Nil(t, computeTechnical("005930", day(0), make([]float64, 10)))
}

func TestComputeTechnical(t *testing.T) {
	bars := barsFixture(120, 70000)
	snap := computeTechnical("005930", day(0), closes(bars))
	require.NotNil(t, snap)
	assert.Equal(t, "005930", snap.Ticker)
	assert.Equal(t, day(0), snap.TradeDate)
}

func TestComputeRisk(t *testing.T) {
	bars := barsFixture(120, 70000)
	kospi := make([]indexPoint, 120)
	for i := range kospi {
		kospi[i] = indexPoint{date: day(i - 119).Format(dateLayout), close: 2500 + float64(i)}
	}

	snap := computeRisk("005930", day(0), bars, kospi)
	require.NotNil(t, snap)
	assert.Equal(t, "005930", snap.Ticker)

	assert.Nil(t, computeRisk("005930", day(0), barsFixture(5, 70000), kospi))
}

func TestFscoreInputs(t *testing.T) {
	f := &market.Fundamental{BPS: fptr(50000), ROE: fptr(12.5)}
	in := fscoreInputs(f)
	assert.Equal(t, f.BPS, in.BPS)
	assert.Equal(t, f.ROE, in.ROE)
	assert.Nil(t, in.PER)
}
