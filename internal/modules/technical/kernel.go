// Package technical implements price-derived indicators: disparity against
// moving averages, Bollinger Bands, and MACD crossovers.
package technical

import (
	"math"

	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

var disparityPeriods = []int{20, 60, 120}

const (
	bollingerPeriod = 20
	bollingerNumStd = 2.0

	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// DisparityResult holds the price-vs-SMA deviation for each window.
type DisparityResult struct {
	Disparity20d  *float64 `json:"disparity_20d"`
	Disparity60d  *float64 `json:"disparity_60d"`
	Disparity120d *float64 `json:"disparity_120d"`
	Signal        string   `json:"signal"`
	SignalLabel   string   `json:"signal_label"`
}

// ComputeDisparity computes (price / SMA) * 100 for the 20, 60 and 120 day
// windows. The signal is driven by the 20-day value: below 92 strong
// oversold, below 96 oversold, above 108 strong overbought, above 104
// overbought.
func ComputeDisparity(prices []float64) DisparityResult {
	res := DisparityResult{Signal: "neutral", SignalLabel: "중립"}
	if len(prices) == 0 {
		return res
	}

	current := prices[len(prices)-1]
	out := make(map[int]*float64, len(disparityPeriods))
	for _, period := range disparityPeriods {
		if len(prices) < period {
			continue
		}
		sma := talib.Sma(prices, period)
		last := sma[len(sma)-1]
		if last > 0 {
			v := round2(current / last * 100)
			out[period] = &v
		}
	}
	res.Disparity20d = out[20]
	res.Disparity60d = out[60]
	res.Disparity120d = out[120]

	if res.Disparity20d != nil {
		switch d := *res.Disparity20d; {
		case d < 92:
			res.Signal, res.SignalLabel = "strong_oversold", "강한 과매도"
		case d < 96:
			res.Signal, res.SignalLabel = "oversold", "과매도"
		case d > 108:
			res.Signal, res.SignalLabel = "strong_overbought", "강한 과매수"
		case d > 104:
			res.Signal, res.SignalLabel = "overbought", "과매수"
		}
	}
	return res
}

// BollingerResult holds the band values and derived signal.
type BollingerResult struct {
	Upper       *float64 `json:"upper"`
	Center      *float64 `json:"center"`
	Lower       *float64 `json:"lower"`
	Bandwidth   *float64 `json:"bandwidth"`
	PercentB    *float64 `json:"percent_b"`
	Signal      string   `json:"signal"`
	SignalLabel string   `json:"signal_label"`
}

// ComputeBollinger computes 20-day Bollinger Bands with 2 standard
// deviations. The band std is the sample standard deviation of the window.
// Signals: %b above 1 is an upper break, below 0 lower support, and a
// bandwidth under 10% of center is a squeeze.
func ComputeBollinger(prices []float64) BollingerResult {
	res := BollingerResult{Signal: "neutral", SignalLabel: "중립"}
	if len(prices) < bollingerPeriod {
		return res
	}

	window := prices[len(prices)-bollingerPeriod:]
	center := stat.Mean(window, nil)
	std := stat.StdDev(window, nil)

	upper := center + bollingerNumStd*std
	lower := center - bollingerNumStd*std

	bandwidth := 0.0
	if center > 0 {
		bandwidth = (upper - lower) / center * 100
	}

	current := prices[len(prices)-1]
	percentB := 0.5
	if upper != lower {
		percentB = (current - lower) / (upper - lower)
	}

	switch {
	case percentB > 1.0:
		res.Signal, res.SignalLabel = "upper_break", "상단 돌파"
	case percentB < 0.0:
		res.Signal, res.SignalLabel = "lower_support", "하단 지지"
	case bandwidth < 10:
		res.Signal, res.SignalLabel = "squeeze", "밴드 수축"
	}

	res.Upper = ptr(round2(upper))
	res.Center = ptr(round2(center))
	res.Lower = ptr(round2(lower))
	res.Bandwidth = ptr(round2(bandwidth))
	res.PercentB = ptr(round4(percentB))
	return res
}

// MACDResult holds the MACD line, signal line, histogram and crossover.
type MACDResult struct {
	MACD        *float64 `json:"macd"`
	SignalLine  *float64 `json:"signal_line"`
	Histogram   *float64 `json:"histogram"`
	Crossover   string   `json:"crossover"`
	SignalLabel string   `json:"signal_label"`
}

// ComputeMACD computes the 12/26/9 MACD. A golden cross is the histogram
// turning positive against a non-positive previous value; a dead cross is
// the mirror. Needs at least slow + signal days of history.
func ComputeMACD(prices []float64) MACDResult {
	res := MACDResult{Crossover: "none", SignalLabel: "없음"}
	if len(prices) < macdSlow+macdSignal {
		return res
	}

	macd, signal, hist := talib.Macd(prices, macdFast, macdSlow, macdSignal)

	n := len(hist)
	currentHist := hist[n-1]
	prevHist := hist[n-2]

	if currentHist > 0 && prevHist <= 0 {
		res.Crossover, res.SignalLabel = "golden_cross", "골든크로스"
	} else if currentHist < 0 && prevHist >= 0 {
		res.Crossover, res.SignalLabel = "dead_cross", "데드크로스"
	}

	res.MACD = ptr(round4(macd[n-1]))
	res.SignalLine = ptr(round4(signal[n-1]))
	res.Histogram = ptr(round4(currentHist))
	return res
}

func ptr(v float64) *float64 { return &v }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
