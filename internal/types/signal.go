package types

import (
	"time"

	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// Exposure is the direction a strategy wants to take.
type Exposure string

const (
	ExposureLong  Exposure = "LONG"
	ExposureShort Exposure = "SHORT"
)

// Side maps the exposure to an order side.
func (e Exposure) Side() (OrderSide, error) {
	switch e {
	case ExposureLong:
		return OrderSideBuy, nil
	case ExposureShort:
		return OrderSideSell, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidOrder, "unsupported exposure %q", e)
	}
}

// Signal is a strategy's request to trade. Signals carry no identity:
// two equal signals produce two orders.
type Signal struct {
	// Venue selects the gateway the order is routed to.
	Venue    Venue
	Symbol   string
	Exposure Exposure
	Quantity float64
	// Price is the reference price the quantity was sized at.
	Price    float64
	Strategy string
	Time     time.Time
}
