package strategy

import (
	"errors"
	"math/big"
	"testing"

	"positionScope/internal/model"
)

func newTestCodec() *Codec {
	return NewCodec(Builtin()...)
}

func wantInt(t *testing.T, got interface{}, want int64) {
	t.Helper()
	value, ok := got.(*big.Int)
	if !ok {
		t.Fatalf("arg = %T, want *big.Int", got)
	}
	if value.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("arg = %s, want %d", value, want)
	}
}

func TestEncodeTemplate(t *testing.T) {
	calls, err := newTestCodec().Encode("auto-rebalance", nil, "conservative")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}

	if calls[0].OperationName != "setRangeParameters" {
		t.Fatalf("first call = %s, want setRangeParameters", calls[0].OperationName)
	}
	wantInt(t, calls[0].Args[0], 2000) // 20% range width in basis points
	wantInt(t, calls[0].Args[1], 500)

	if calls[1].OperationName != "setExecutionLimits" {
		t.Fatalf("second call = %s, want setExecutionLimits", calls[1].OperationName)
	}
	wantInt(t, calls[1].Args[0], 30)
	wantInt(t, calls[1].Args[1], 25000) // 250.00 in minor units

	if calls[2].OperationName != "setCompoundPolicy" {
		t.Fatalf("third call = %s, want setCompoundPolicy", calls[2].OperationName)
	}
	if enabled, ok := calls[2].Args[0].(bool); !ok || !enabled {
		t.Fatalf("auto-compound arg = %v, want true", calls[2].Args[0])
	}
	wantInt(t, calls[2].Args[1], 2) // weekly is option index 2
}

func TestEncodeCustomSkipsIncompleteGroup(t *testing.T) {
	// min-position-value has no default, so with no caller value the
	// execution group must be skipped rather than padded.
	calls, err := newTestCodec().Encode("auto-rebalance", nil, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	for _, call := range calls {
		if call.OperationName == "setExecutionLimits" {
			t.Fatal("incomplete group emitted")
		}
	}
}

func TestEncodeCustomCompletesGroup(t *testing.T) {
	calls, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"min-position-value": 100.0,
	}, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	wantInt(t, calls[1].Args[0], 50)    // default max-slippage 0.5%
	wantInt(t, calls[1].Args[1], 10000) // caller-supplied 100.00
}

func TestEncodeEmptyTemplateMeansCustom(t *testing.T) {
	withSentinel, err := newTestCodec().Encode("auto-rebalance", nil, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode custom: %v", err)
	}
	withEmpty, err := newTestCodec().Encode("auto-rebalance", nil, "")
	if err != nil {
		t.Fatalf("Encode empty: %v", err)
	}
	if len(withSentinel) != len(withEmpty) {
		t.Fatalf("empty template calls = %d, custom = %d, want equal", len(withEmpty), len(withSentinel))
	}
}

func TestEncodePercentRounding(t *testing.T) {
	calls, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"range-width": 0.126,
	}, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	wantInt(t, calls[0].Args[0], 13) // 12.6 basis points rounds to 13
}

func TestEncodeSelectByIndex(t *testing.T) {
	calls, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"compound-frequency": 1,
	}, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	wantInt(t, calls[1].Args[1], 1)
}

func TestEncodeFiatScaleDeclaredPerParam(t *testing.T) {
	codec := NewCodec(Strategy{
		ID: "scaled",
		Params: []Param{
			{ID: "budget", Kind: KindFiatCurrency, Group: "limits", Scale: 1_000_000},
		},
		Groups: []Group{
			{Name: "limits", Operation: "setLimits"},
		},
	})

	calls, err := codec.Encode("scaled", map[string]interface{}{"budget": 1.25}, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	wantInt(t, calls[0].Args[0], 1_250_000)
}

func TestEncodeFiatTruncatesTowardZero(t *testing.T) {
	calls, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"min-position-value": 100.999,
	}, TemplateCustom)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	wantInt(t, calls[1].Args[1], 10099) // truncated, not rounded
}

func TestEncodeRejectsUnknownStrategy(t *testing.T) {
	_, err := newTestCodec().Encode("no-such-strategy", nil, TemplateCustom)
	if !errors.Is(err, model.ErrInvalidStrategyConfig) {
		t.Fatalf("error = %v, want ErrInvalidStrategyConfig", err)
	}
}

func TestEncodeRejectsUnknownTemplate(t *testing.T) {
	_, err := newTestCodec().Encode("auto-rebalance", nil, "no-such-template")
	if !errors.Is(err, model.ErrInvalidStrategyConfig) {
		t.Fatalf("error = %v, want ErrInvalidStrategyConfig", err)
	}
}

func TestEncodeRejectsUnknownOption(t *testing.T) {
	_, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"compound-frequency": "fortnightly",
	}, TemplateCustom)
	if !errors.Is(err, model.ErrInvalidStrategyConfig) {
		t.Fatalf("error = %v, want ErrInvalidStrategyConfig", err)
	}
}

func TestEncodeRejectsOutOfRangeIndex(t *testing.T) {
	_, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"compound-frequency": 5,
	}, TemplateCustom)
	if !errors.Is(err, model.ErrInvalidStrategyConfig) {
		t.Fatalf("error = %v, want ErrInvalidStrategyConfig", err)
	}
}

func TestEncodeRejectsWrongBooleanType(t *testing.T) {
	_, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"auto-compound": "yes",
	}, TemplateCustom)
	if !errors.Is(err, model.ErrInvalidStrategyConfig) {
		t.Fatalf("error = %v, want ErrInvalidStrategyConfig", err)
	}
}

func TestEncodeInvalidValueRejectsWholeEncoding(t *testing.T) {
	calls, err := newTestCodec().Encode("auto-rebalance", map[string]interface{}{
		"min-position-value": 100.0,
		"compound-frequency": "fortnightly",
	}, TemplateCustom)
	if err == nil {
		t.Fatal("expected error for invalid option")
	}
	if calls != nil {
		t.Fatalf("calls = %v, want none on rejection", calls)
	}
}
