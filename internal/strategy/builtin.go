package strategy

// Builtin returns the strategies shipped with the engine.
func Builtin() []Strategy {
	return []Strategy{autoRebalance()}
}

// autoRebalance keeps a position centered on the pool price, compounding
// collected fees on a schedule.
func autoRebalance() Strategy {
	return Strategy{
		ID: "auto-rebalance",
		Params: []Param{
			{ID: "range-width", Kind: KindPercent, Group: "range", Default: 10.0},
			{ID: "rebalance-threshold", Kind: KindPercent, Group: "range", Default: 2.5},
			{ID: "max-slippage", Kind: KindPercent, Group: "execution", Default: 0.5},
			{ID: "min-position-value", Kind: KindFiatCurrency, Group: "execution"},
			{ID: "auto-compound", Kind: KindBoolean, Group: "compounding", Default: true},
			{
				ID:      "compound-frequency",
				Kind:    KindSelect,
				Group:   "compounding",
				Options: []string{"hourly", "daily", "weekly"},
				Default: "daily",
			},
		},
		Groups: []Group{
			{Name: "range", Operation: "setRangeParameters", Description: "Range width and rebalance trigger"},
			{Name: "execution", Operation: "setExecutionLimits", Description: "Slippage and position size limits"},
			{Name: "compounding", Operation: "setCompoundPolicy", Description: "Fee compounding policy"},
		},
		Templates: map[string]map[string]interface{}{
			"conservative": {
				"range-width":         20.0,
				"rebalance-threshold": 5.0,
				"max-slippage":        0.3,
				"min-position-value":  250.0,
				"auto-compound":       true,
				"compound-frequency":  "weekly",
			},
			"aggressive": {
				"range-width":         4.0,
				"rebalance-threshold": 1.0,
				"max-slippage":        1.0,
				"min-position-value":  50.0,
				"auto-compound":       true,
				"compound-frequency":  "hourly",
			},
		},
	}
}
