package gateway

import (
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/types"
)

// randomWalk generates bars that follow a geometric Brownian motion, one walk per symbol.
type randomWalk struct {
	rng    *rand.Rand
	params config.SyntheticParams
	prices map[string]float64
}

func newRandomWalk(params config.SyntheticParams) *randomWalk {
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &randomWalk{
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // synthetic prices only
		params: params,
		prices: make(map[string]float64),
	}
}

// next returns the bar for symbol that starts at t.
func (w *randomWalk) next(symbol string, t time.Time) types.Bar {
	open, ok := w.prices[symbol]
	if !ok {
		open = w.params.StartPrice
	}

	// Box-Muller transform for a standard normal draw
	u1 := w.rng.Float64()
	u2 := w.rng.Float64()

	if u1 == 0 {
		u1 = math.SmallestNonzeroFloat64
	}

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	closePrice := open * (1 + w.params.Volatility*z + w.params.Drift)
	if closePrice <= 0 {
		closePrice = open * 0.99
	}

	high := math.Max(open, closePrice) + math.Abs(w.rng.Float64()*w.params.Volatility*open*0.5)

	low := math.Min(open, closePrice) - math.Abs(w.rng.Float64()*w.params.Volatility*open*0.5)
	if low <= 0 {
		low = math.Min(open, closePrice) * 0.99
	}

	volume := roundTo(1000*(1+(w.rng.Float64()*2-1)*0.3), 2)

	w.prices[symbol] = closePrice

	return types.Bar{
		Venue:      types.VenuePaper,
		Symbol:     symbol,
		Time:       t,
		Open:       roundTo(open, 4),
		High:       roundTo(high, 4),
		Low:        roundTo(low, 4),
		Close:      roundTo(closePrice, 4),
		Volume:     volume,
		TradeCount: optional.None[int64](),
		VWAP:       optional.None[float64](),
	}
}

func roundTo(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))

	return math.Round(value*multiplier) / multiplier
}
