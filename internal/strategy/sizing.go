package strategy

import (
	"context"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/shopspring/decimal"
)

// Sizer turns a reference price into an order quantity: a fixed fraction of cash
// for buys or of equity for sells, divided by the price.
type Sizer struct {
	fraction  decimal.Decimal
	precision int32
	accounts  AccountProvider
}

func NewSizer(cfg config.Sizing, accounts AccountProvider) *Sizer {
	return &Sizer{
		fraction:  decimal.NewFromFloat(cfg.Fraction),
		precision: cfg.Precision,
		accounts:  accounts,
	}
}

// Quantity queries the venue account synchronously. It runs on the strategy's goroutine.
func (s *Sizer) Quantity(ctx context.Context, venue types.Venue, exposure types.Exposure, price float64) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "reference price must be positive, got %v", price)
	}

	if s.accounts == nil {
		return 0, errors.New(errors.ErrCodeSizingFailed, "no account provider")
	}

	info, err := s.accounts.AccountInfo(ctx, venue)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSizingFailed, err, "failed to query %s account", venue)
	}

	var balance float64

	switch exposure {
	case types.ExposureLong:
		balance = info.Cash
	case types.ExposureShort:
		balance = info.Equity
	default:
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "unsupported exposure %q", exposure)
	}

	qty := decimal.NewFromFloat(balance).
		Mul(s.fraction).
		Div(decimal.NewFromFloat(price)).
		Truncate(s.precision)

	if !qty.IsPositive() {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "%s balance %v too small at price %v", exposure, balance, price)
	}

	return qty.InexactFloat64(), nil
}
