// Package indicator computes technical indicators over close-price slices.
package indicator

import (
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// DefaultRSIPeriod is Wilder's original seed length.
const DefaultRSIPeriod = 14

// rsiSmoothing is Wilder's smoothing length. Each change after the seed is folded in
// with weight 1/14, independently of the seed length.
const rsiSmoothing = 14.0

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.NewInsufficientDataErrorf(1, 0, "", "mean of an empty series")
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values)), nil
}

// WilderRSI returns the RSI at the last close. The first period changes seed the
// average gain and loss, every later change is folded in with weight 1/14.
// With period len(closes)-1 the RSI is the plain average over the whole series.
//
// A series with no losses reads 100. A flat series reads 50.
func WilderRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a positive integer, got %d", period)
	}

	if len(closes) < period+1 {
		return 0, errors.NewInsufficientDataErrorf(period+1, len(closes), "",
			"insufficient data for RSI: required %d closes, got %d", period+1, len(closes))
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 1; i <= period; i++ {
		gain, loss := change(closes[i-1], closes[i])
		avgGain += gain
		avgLoss += loss
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		gain, loss := change(closes[i-1], closes[i])
		avgGain = (avgGain*(rsiSmoothing-1) + gain) / rsiSmoothing
		avgLoss = (avgLoss*(rsiSmoothing-1) + loss) / rsiSmoothing
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}

		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}

func change(prev, cur float64) (gain, loss float64) {
	diff := cur - prev
	if diff > 0 {
		return diff, 0
	}

	return 0, -diff
}
