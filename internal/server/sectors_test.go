package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whaleback/whaleback/internal/modules/trend"
)

func sptr(v string) *string { return &v }
func iptr(v int) *int       { return &v }

func TestBuildSectorRanking(t *testing.T) {
	rows := []trend.Snapshot{
		{Ticker: "005930", Sector: sptr("전기전자"), RSPercentile: iptr(90), RSVsKospi20d: fptr(1.10)},
		{Ticker: "000660", Sector: sptr("전기전자"), RSPercentile: iptr(70), RSVsKospi20d: fptr(1.04)},
		{Ticker: "105560", Sector: sptr("금융"), RSPercentile: iptr(40), RSVsKospi20d: fptr(0.96)},
		{Ticker: "068270", Sector: sptr("의약품"), RSVsKospi20d: fptr(1.01)},
		{Ticker: "900001"},
	}

	ranking := buildSectorRanking(rows)
	require.Len(t, ranking, 3)

	assert.Equal(t, "전기전자", ranking[0].Sector)
	assert.Equal(t, 2, ranking[0].StockCount)
	assert.Equal(t, 1, ranking[0].MomentumRank)
	require.NotNil(t, ranking[0].AvgRSPctile)
	assert.InDelta(t, 80.0, *ranking[0].AvgRSPctile, 1e-9)
	require.NotNil(t, ranking[0].AvgRS20d)
	assert.InDelta(t, 1.07, *ranking[0].AvgRS20d, 1e-9)

	assert.Equal(t, "금융", ranking[1].Sector)
	assert.Equal(t, 2, ranking[1].MomentumRank)

	// No percentile at all sorts last.
	assert.Equal(t, "의약품", ranking[2].Sector)
	assert.Nil(t, ranking[2].AvgRSPctile)
	assert.Equal(t, 3, ranking[2].MomentumRank)
}

func TestBuildSectorRankingEmpty(t *testing.T) {
	assert.Empty(t, buildSectorRanking(nil))
	assert.Empty(t, buildSectorRanking([]trend.Snapshot{{Ticker: "A"}}))
}
