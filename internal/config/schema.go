package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-router/internal/types"
)

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// Schema describes the configuration file. Params blocks are keyed by venue and strategy type.
type Schema struct {
	Config     json.RawMessage            `json:"config"`
	Venues     map[string]json.RawMessage `json:"venues"`
	Strategies map[string]json.RawMessage `json:"strategies"`
}

// JSONSchema builds the schema of the configuration file and of every params block.
func JSONSchema() (*Schema, error) {
	out := &Schema{
		Config:     nil,
		Venues:     make(map[string]json.RawMessage),
		Strategies: make(map[string]json.RawMessage),
	}

	root, err := ToJSONSchema(Config{})
	if err != nil {
		return nil, err
	}

	out.Config = json.RawMessage(root)

	for _, v := range types.Venues() {
		var (
			s   string
			err error
		)

		switch v {
		case types.VenueBinance:
			s, err = ToJSONSchema(BinanceParams{})
		case types.VenuePaper:
			s, err = ToJSONSchema(PaperParams{})
		}

		if err != nil {
			return nil, err
		}

		out.Venues[v.String()] = json.RawMessage(s)
	}

	for _, k := range types.StrategyKinds() {
		var (
			s   string
			err error
		)

		switch k {
		case types.StrategyKindSMACrossover:
			s, err = ToJSONSchema(SMACrossoverParams{})
		case types.StrategyKindRSIThreshold:
			s, err = ToJSONSchema(RSIThresholdParams{})
		case types.StrategyKindNoop:
			s, err = ToJSONSchema(NoopParams{})
		}

		if err != nil {
			return nil, err
		}

		out.Strategies[k.String()] = json.RawMessage(s)
	}

	return out, nil
}
