package types

// AccountInfo is the balance snapshot used for position sizing.
type AccountInfo struct {
	// Cash is the balance available for new purchases.
	Cash float64 `json:"cash" yaml:"cash"`
	// Equity is cash plus the marked value of open positions.
	Equity float64 `json:"equity" yaml:"equity"`
}
