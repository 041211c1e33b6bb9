// Package indicator provides the pure numeric recurrences used by scoring.
//
// Every function returns a Series the same length as its input. Indices
// without enough history hold NaN; use At to read them safely.
package indicator

import "math"

// Series is an indicator output aligned to its input; NaN means undefined
type Series []float64

// At returns the value at index i and whether it is defined
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || math.IsNaN(s[i]) {
		return 0, false
	}
	return s[i], true
}

// Last returns the value at the final index
func (s Series) Last() (float64, bool) {
	return s.At(len(s) - 1)
}

// Ptr returns the value at i as a pointer, nil when undefined
func (s Series) Ptr(i int) *float64 {
	v, ok := s.At(i)
	if !ok {
		return nil
	}
	return &v
}

func undefined(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the simple moving average over a trailing window of period values
func SMA(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RSI is Wilder's relative strength index
// 첫 값은 index=period, 시드는 첫 period개 변화량의 평균
func RSI(closes []float64, period int) Series {
	out := undefined(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff >= 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff >= 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(gain, loss float64) float64 {
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// TrueRange returns the per-bar true range; index 0 is high-low
func TrueRange(highs, lows, closes []float64) []float64 {
	n := minLen(highs, lows, closes)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := highs[i] - lows[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		prev := closes[i-1]
		tr[i] = math.Max(hl, math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return tr
}

// ATR is Wilder's average true range
// 시드 = TR[1..period] 평균, 첫 값은 index=period
func ATR(highs, lows, closes []float64, period int) Series {
	n := minLen(highs, lows, closes)
	out := undefined(n)
	if period <= 0 || n <= period {
		return out
	}

	tr := TrueRange(highs, lows, closes)
	seed := 0.0
	for i := 1; i <= period; i++ {
		seed += tr[i]
	}
	atr := seed / float64(period)
	out[period] = atr

	p := float64(period)
	for i := period + 1; i < n; i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = atr
	}
	return out
}

// HighestHigh returns the max of the last n highs (all highs when n exceeds the length)
func HighestHigh(highs []float64, n int) float64 {
	if len(highs) == 0 || n <= 0 {
		return 0
	}
	start := len(highs) - n
	if start < 0 {
		start = 0
	}
	hi := highs[start]
	for _, h := range highs[start+1:] {
		if h > hi {
			hi = h
		}
	}
	return hi
}

func minLen(a, b, c []float64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(c) < n {
		n = len(c)
	}
	return n
}
