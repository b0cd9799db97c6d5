package engine

import (
	"github.com/rxtech-lab/argo-router/internal/strategy"
	"github.com/rxtech-lab/argo-router/internal/types"
)

// RoutingTable maps (venue, symbol) to its subscribers in configuration order.
// It is built before the engine runs and only read afterwards.
type RoutingTable map[types.Venue]map[string][]strategy.Strategy

func (t RoutingTable) add(venue types.Venue, symbol string, s strategy.Strategy) {
	symbols, ok := t[venue]
	if !ok {
		symbols = make(map[string][]strategy.Strategy)
		t[venue] = symbols
	}

	symbols[symbol] = append(symbols[symbol], s)
}

// Lookup returns the subscribers of symbol on venue, or nil.
func (t RoutingTable) Lookup(venue types.Venue, symbol string) []strategy.Strategy {
	return t[venue][symbol]
}

// Symbols returns every routed symbol of venue.
func (t RoutingTable) Symbols(venue types.Venue) []string {
	out := make([]string, 0, len(t[venue]))
	for symbol := range t[venue] {
		out = append(out, symbol)
	}

	return out
}
