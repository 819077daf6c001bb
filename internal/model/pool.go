package model

// Pool captures the slice of V3 pool state needed for valuation.
type Pool struct {
	Address              string `json:"address"`
	Token0               string `json:"token0"`
	Token1               string `json:"token1"`
	Fee                  uint32 `json:"fee"`
	Tick                 int32  `json:"tick"`
	SqrtPriceX96         string `json:"sqrt_price_x96"`
	FeeGrowthGlobal0X128 string `json:"fee_growth_global0_x128"`
	FeeGrowthGlobal1X128 string `json:"fee_growth_global1_x128"`
}
