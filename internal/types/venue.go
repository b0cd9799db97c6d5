package types

import (
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Venue identifies a trading venue. The set is closed: every gateway the router
// can construct has exactly one Venue.
type Venue string

const (
	// VenueBinance streams spot market data from Binance and routes orders to its REST API.
	VenueBinance Venue = "binance"
	// VenuePaper is an in-process venue with a simulated account.
	VenuePaper Venue = "paper"
)

// Venues lists every supported venue in declaration order.
func Venues() []Venue {
	return []Venue{VenueBinance, VenuePaper}
}

// ParseVenue resolves a configured venue name.
func ParseVenue(name string) (Venue, error) {
	switch Venue(name) {
	case VenueBinance:
		return VenueBinance, nil
	case VenuePaper:
		return VenuePaper, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownVenue, "unknown venue %q", name)
	}
}

func (v Venue) String() string {
	return string(v)
}

// UnmarshalYAML resolves the venue while the configuration is decoded,
// so unknown names fail the load.
func (v *Venue) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}

	parsed, err := ParseVenue(name)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUnknownVenue, err, "line %d", node.Line)
	}

	*v = parsed

	return nil
}

func (Venue) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(Venues()))
	for _, v := range Venues() {
		enum = append(enum, string(v))
	}

	return &jsonschema.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Trading venue",
	}
}

// StrategyKind identifies a strategy variant.
type StrategyKind string

const (
	StrategyKindSMACrossover StrategyKind = "sma_crossover"
	StrategyKindRSIThreshold StrategyKind = "rsi_threshold"
	// StrategyKindNoop receives events and never signals. It is the template for new strategies.
	StrategyKindNoop StrategyKind = "noop"
)

// StrategyKinds lists every supported strategy kind.
func StrategyKinds() []StrategyKind {
	return []StrategyKind{StrategyKindSMACrossover, StrategyKindRSIThreshold, StrategyKindNoop}
}

// ParseStrategyKind resolves a configured strategy type.
func ParseStrategyKind(name string) (StrategyKind, error) {
	switch StrategyKind(name) {
	case StrategyKindSMACrossover:
		return StrategyKindSMACrossover, nil
	case StrategyKindRSIThreshold:
		return StrategyKindRSIThreshold, nil
	case StrategyKindNoop:
		return StrategyKindNoop, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy type %q", name)
	}
}

func (k StrategyKind) String() string {
	return string(k)
}

func (k *StrategyKind) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}

	parsed, err := ParseStrategyKind(name)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUnknownStrategy, err, "line %d", node.Line)
	}

	*k = parsed

	return nil
}

func (StrategyKind) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(StrategyKinds()))
	for _, k := range StrategyKinds() {
		enum = append(enum, string(k))
	}

	return &jsonschema.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Strategy variant",
	}
}
