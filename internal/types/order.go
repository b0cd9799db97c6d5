package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

type OrderSide string

type OrderType string

type TimeInForce string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// OrderRequest is what a gateway receives for submission.
type OrderRequest struct {
	// ID doubles as the client order id on venues that accept one.
	ID          string      `yaml:"id" json:"id" validate:"required,uuid"`
	Venue       Venue       `yaml:"venue" json:"venue" validate:"required"`
	Symbol      string      `yaml:"symbol" json:"symbol" validate:"required"`
	Side        OrderSide   `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Type        OrderType   `yaml:"type" json:"type" validate:"required,oneof=MARKET LIMIT"`
	TimeInForce TimeInForce `yaml:"time_in_force" json:"time_in_force" validate:"required,oneof=GTC IOC FOK"`
	Quantity    float64     `yaml:"quantity" json:"quantity" validate:"gt=0"`
	// Price is the reference price for market orders and the limit for limit orders.
	Price    float64 `yaml:"price" json:"price" validate:"gte=0"`
	Strategy string  `yaml:"strategy" json:"strategy"`
}

// Validate validates the order request.
func (o OrderRequest) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	return nil
}

// NewMarketOrder translates a signal into a good-till-cancelled market order.
func NewMarketOrder(signal Signal) (OrderRequest, error) {
	side, err := signal.Exposure.Side()
	if err != nil {
		return OrderRequest{}, err
	}

	order := OrderRequest{
		ID:          uuid.New().String(),
		Venue:       signal.Venue,
		Symbol:      signal.Symbol,
		Side:        side,
		Type:        OrderTypeMarket,
		TimeInForce: TimeInForceGTC,
		Quantity:    signal.Quantity,
		Price:       signal.Price,
		Strategy:    signal.Strategy,
	}

	if err := order.Validate(); err != nil {
		return OrderRequest{}, err
	}

	return order, nil
}
