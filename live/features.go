package live

import "github.com/rustyeddy/stocktrader/market"

const featureCount = 24

// Features builds the model feature vector from recent bars: short and
// long moving-average ratios, recent returns, and volume ratios, padded
// to the model's fixed width. Callers should pass at least 30 bars.
func Features(bars []market.Bar) []float64 {
	out := make([]float64, 0, featureCount)
	n := len(bars)
	if n == 0 {
		return make([]float64, featureCount)
	}
	last := bars[n-1].Close

	for _, w := range []int{5, 10, 20, 30} {
		ma := movingAverage(bars, w)
		if ma > 0 {
			out = append(out, last/ma-1)
		} else {
			out = append(out, 0)
		}
	}

	for _, lag := range []int{1, 2, 3, 5, 10, 20} {
		if n > lag && bars[n-1-lag].Close > 0 {
			out = append(out, last/bars[n-1-lag].Close-1)
		} else {
			out = append(out, 0)
		}
	}

	for _, w := range []int{5, 10, 20} {
		va := volumeAverage(bars, w)
		if va > 0 {
			out = append(out, float64(bars[n-1].Volume)/va-1)
		} else {
			out = append(out, 0)
		}
	}

	if bars[n-1].High > bars[n-1].Low {
		out = append(out, (last-bars[n-1].Low)/(bars[n-1].High-bars[n-1].Low))
	} else {
		out = append(out, 0)
	}

	for len(out) < featureCount {
		out = append(out, 0)
	}
	return out[:featureCount]
}

func movingAverage(bars []market.Bar, window int) float64 {
	if len(bars) < window || window <= 0 {
		return 0
	}
	var sum float64
	for _, b := range bars[len(bars)-window:] {
		sum += b.Close
	}
	return sum / float64(window)
}

func volumeAverage(bars []market.Bar, window int) float64 {
	if len(bars) < window || window <= 0 {
		return 0
	}
	var sum float64
	for _, b := range bars[len(bars)-window:] {
		sum += float64(b.Volume)
	}
	return sum / float64(window)
}
