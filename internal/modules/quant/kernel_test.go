package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func TestComputeRIM(t *testing.T) {
	t.Run("value creation", func(t *testing.T) {
		res := ComputeRIM(f(50000), f(15.0), 0.035, 0.065, 0.0)
		require.True(t, res.Computable)
		require.NotNil(t, res.RIMValue)
		// r = 0.10, residual = (0.15-0.10)*50000 = 2500, capitalised at 0.10
		assert.InDelta(t, 75000.00, *res.RIMValue, 1e-9)
		assert.InDelta(t, 0.10, res.RequiredReturn, 1e-12)
	})

	t.Run("missing inputs", func(t *testing.T) {
		res := ComputeRIM(nil, f(10), 0.035, 0.065, 0)
		assert.False(t, res.Computable)
		assert.Equal(t, "missing_data", res.Reason)

		res = ComputeRIM(f(1000), nil, 0.035, 0.065, 0)
		assert.False(t, res.Computable)
	})

	t.Run("non-positive bps", func(t *testing.T) {
		res := ComputeRIM(f(-5), f(10), 0.035, 0.065, 0)
		assert.False(t, res.Computable)
		assert.Equal(t, "negative_bps", res.Reason)
	})

	t.Run("degenerate denominator caps at 10x book", func(t *testing.T) {
		res := ComputeRIM(f(10000), f(20.0), 0.05, 0.05, 0.10)
		require.True(t, res.Computable)
		assert.InDelta(t, 100000, *res.RIMValue, 1e-9)

		res = ComputeRIM(f(10000), f(5.0), 0.05, 0.05, 0.10)
		require.True(t, res.Computable)
		assert.InDelta(t, 10000, *res.RIMValue, 1e-9)
	})

	t.Run("value destruction floors at zero", func(t *testing.T) {
		res := ComputeRIM(f(10000), f(-80.0), 0.035, 0.065, 0)
		require.True(t, res.Computable)
		assert.GreaterOrEqual(t, *res.RIMValue, 0.0)
	})
}

func TestComputeSafetyMargin(t *testing.T) {
	t.Run("undervalued", func(t *testing.T) {
		res := ComputeSafetyMargin(f(70000), 42000)
		require.NotNil(t, res.SafetyMarginPct)
		assert.InDelta(t, 40.00, *res.SafetyMarginPct, 1e-9)
		require.NotNil(t, res.IsUndervalued)
		assert.True(t, *res.IsUndervalued)
	})

	t.Run("overvalued", func(t *testing.T) {
		res := ComputeSafetyMargin(f(40000), 50000)
		require.NotNil(t, res.SafetyMarginPct)
		assert.Less(t, *res.SafetyMarginPct, 0.0)
		assert.False(t, *res.IsUndervalued)
	})

	t.Run("neutral on invalid inputs", func(t *testing.T) {
		assert.Nil(t, ComputeSafetyMargin(nil, 100).SafetyMarginPct)
		assert.Nil(t, ComputeSafetyMargin(f(0), 100).SafetyMarginPct)
		assert.Nil(t, ComputeSafetyMargin(f(100), 0).SafetyMarginPct)
	})
}

func TestComputeFScore(t *testing.T) {
	t.Run("perfect score", func(t *testing.T) {
		current := &FScoreInputs{
			EPS: f(5000), ROE: f(15), BPS: f(60000),
			PBR: f(0.5), PER: f(8), Div: f(2.5),
		}
		previous := &FScoreInputs{EPS: f(3000), ROE: f(10), BPS: f(50000)}
		medians := &SectorMedians{MedianPBR: f(1.0), MedianPER: f(15)}

		res := ComputeFScore(current, previous, medians, i64(1_000_000), i64(800_000))
		assert.Equal(t, 9, res.TotalScore)
		assert.Equal(t, 9, res.MaxScore)
		assert.Equal(t, 1.0, res.DataCompleteness)
		assert.Len(t, res.Criteria, 9)
	})

	t.Run("nil current is neutral", func(t *testing.T) {
		res := ComputeFScore(nil, nil, nil, nil, nil)
		assert.Equal(t, 0, res.TotalScore)
		assert.Equal(t, 0.0, res.DataCompleteness)
		assert.Empty(t, res.Criteria)
	})

	t.Run("missing previous period limits completeness", func(t *testing.T) {
		current := &FScoreInputs{EPS: f(100), ROE: f(5), BPS: f(1000)}
		res := ComputeFScore(current, nil, nil, nil, nil)

		// Only positive_eps and positive_roe are computable.
		assert.Equal(t, 2, res.TotalScore)
		assert.InDelta(t, 0.22, res.DataCompleteness, 1e-9)
		assert.Len(t, res.Criteria, 9)
	})

	t.Run("pbr criterion requires positive pbr", func(t *testing.T) {
		current := &FScoreInputs{PBR: f(-0.5)}
		medians := &SectorMedians{MedianPBR: f(1.0)}
		res := ComputeFScore(current, nil, medians, nil, nil)

		for _, c := range res.Criteria {
			if c.Name == "pbr_below_sector" {
				assert.Equal(t, 0, c.Score)
				assert.Equal(t, "no_sector_data", c.Note)
			}
		}
	})

	t.Run("volume criterion requires positive prior volume", func(t *testing.T) {
		current := &FScoreInputs{}
		res := ComputeFScore(current, nil, nil, i64(100), i64(0))
		assert.Equal(t, 0.0, res.DataCompleteness)
	})
}

func TestComputeGrade(t *testing.T) {
	tests := []struct {
		name         string
		fscore       int
		margin       *float64
		completeness float64
		want         string
	}{
		{"low completeness", 9, f(50), 0.4, "F"},
		{"strong buy", 8, f(40), 0.9, "A+"},
		{"buy", 7, f(25), 0.9, "A"},
		{"buy watch", 6, f(12), 0.9, "B+"},
		{"hold", 5, f(5), 0.9, "B"},
		{"neutral despite margin", 4, f(90), 0.9, "C+"},
		{"caution", 3, nil, 0.9, "C"},
		{"risk", 1, nil, 0.9, "D"},
		{"missing margin blocks upper grades", 9, nil, 1.0, "C+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeGrade(tt.fscore, tt.margin, tt.completeness))
		})
	}
}
