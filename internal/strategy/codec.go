package strategy

import (
	"fmt"
	"math"
	"math/big"

	"positionScope/internal/model"
)

// ContractCall is one encoded setter operation, ready for an external
// batch-execution mechanism. The engine never signs or submits.
type ContractCall struct {
	TargetGroup   string        `json:"target_group"`
	OperationName string        `json:"operation_name"`
	Args          []interface{} `json:"args"`
	Description   string        `json:"description"`
}

// Codec translates flat parameter maps into typed, grouped contract-call
// arguments.
type Codec struct {
	strategies map[string]Strategy
}

func NewCodec(strategies ...Strategy) *Codec {
	byID := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		byID[s.ID] = s
	}
	return &Codec{strategies: byID}
}

// Encode resolves the template, formats every parameter by its declared
// kind, and emits one call per fully-specified group, in declared group
// order. Partially-specified groups are skipped, not sent with
// placeholders. Unknown strategies, templates, and option values are
// rejected before any encoding.
func (c *Codec) Encode(strategyID string, values map[string]interface{}, template string) ([]ContractCall, error) {
	strat, ok := c.strategies[strategyID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrInvalidStrategyConfig, strategyID)
	}

	resolved, err := resolveValues(strat, values, template)
	if err != nil {
		return nil, err
	}

	// Format everything up front so an invalid value rejects the whole
	// encoding rather than emitting a partial call list.
	formatted := make(map[string]interface{}, len(resolved))
	for _, param := range strat.Params {
		raw, ok := resolved[param.ID]
		if !ok {
			continue
		}
		value, err := formatParam(param, raw)
		if err != nil {
			return nil, err
		}
		formatted[param.ID] = value
	}

	calls := make([]ContractCall, 0, len(strat.Groups))
	for _, group := range strat.Groups {
		args := make([]interface{}, 0)
		complete := true
		for _, param := range strat.Params {
			if param.Group != group.Name {
				continue
			}
			value, ok := formatted[param.ID]
			if !ok {
				complete = false
				break
			}
			args = append(args, value)
		}
		if !complete || len(args) == 0 {
			continue
		}
		calls = append(calls, ContractCall{
			TargetGroup:   group.Name,
			OperationName: group.Operation,
			Args:          args,
			Description:   group.Description,
		})
	}
	return calls, nil
}

// resolveValues picks the effective parameter map: a named template
// substitutes its fixed values for all parameters; "custom" or an empty
// template merges the caller's values over the declared defaults.
func resolveValues(strat Strategy, values map[string]interface{}, template string) (map[string]interface{}, error) {
	if template != "" && template != TemplateCustom {
		fixed, ok := strat.Templates[template]
		if !ok {
			return nil, fmt.Errorf("%w: strategy %q has no template %q", model.ErrInvalidStrategyConfig, strat.ID, template)
		}
		out := make(map[string]interface{}, len(fixed))
		for id, value := range fixed {
			out[id] = value
		}
		return out, nil
	}

	out := make(map[string]interface{}, len(strat.Params))
	for _, param := range strat.Params {
		if param.Default != nil {
			out[param.ID] = param.Default
		}
	}
	for id, value := range values {
		out[id] = value
	}
	return out, nil
}

func formatParam(param Param, raw interface{}) (interface{}, error) {
	switch param.Kind {
	case KindPercent:
		value, err := asFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", model.ErrInvalidStrategyConfig, param.ID, err)
		}
		return big.NewInt(int64(math.Round(value * 100))), nil

	case KindFiatCurrency:
		value, err := asFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", model.ErrInvalidStrategyConfig, param.ID, err)
		}
		scale := param.Scale
		if scale == 0 {
			scale = 100
		}
		scaled := new(big.Float).SetMode(big.ToZero).SetFloat64(value)
		scaled.Mul(scaled, new(big.Float).SetInt64(scale))
		out, _ := scaled.Int(nil)
		return out, nil

	case KindBoolean:
		value, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected bool, got %T", model.ErrInvalidStrategyConfig, param.ID, raw)
		}
		return value, nil

	case KindSelect:
		return formatSelect(param, raw)

	default:
		return nil, fmt.Errorf("%w: %s: unknown kind %d", model.ErrInvalidStrategyConfig, param.ID, param.Kind)
	}
}

func formatSelect(param Param, raw interface{}) (interface{}, error) {
	switch value := raw.(type) {
	case string:
		for i, option := range param.Options {
			if option == value {
				return big.NewInt(int64(i)), nil
			}
		}
		return nil, fmt.Errorf("%w: %s: option %q not in declared set", model.ErrInvalidStrategyConfig, param.ID, value)
	default:
		index, err := asFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", model.ErrInvalidStrategyConfig, param.ID, err)
		}
		i := int(index)
		if float64(i) != index || i < 0 || i >= len(param.Options) {
			return nil, fmt.Errorf("%w: %s: index %v not in declared set", model.ErrInvalidStrategyConfig, param.ID, raw)
		}
		return big.NewInt(int64(i)), nil
	}
}

func asFloat(raw interface{}) (float64, error) {
	switch value := raw.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int32:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case uint64:
		return float64(value), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}
