package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Quote is a top-of-book update. Either side may be absent.
type Quote struct {
	Venue    Venue
	Symbol   string
	Time     time.Time
	BidPrice optional.Option[float64]
	BidSize  optional.Option[float64]
	AskPrice optional.Option[float64]
	AskSize  optional.Option[float64]
}

// Mid returns the midpoint when both sides are present.
func (q Quote) Mid() optional.Option[float64] {
	bid, bidErr := q.BidPrice.Take()
	ask, askErr := q.AskPrice.Take()

	if bidErr != nil || askErr != nil {
		return optional.None[float64]()
	}

	return optional.Some((bid + ask) / 2)
}

// Trade is a single print reported by a venue.
type Trade struct {
	Venue  Venue
	Symbol string
	Time   time.Time
	Price  float64
	Volume float64
	// ID is the venue-assigned trade id.
	ID string
}

// Bar is an OHLCV summary of one symbol over a fixed period.
type Bar struct {
	Venue      Venue
	Symbol     string
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	TradeCount optional.Option[int64]
	VWAP       optional.Option[float64]
}
