package model

// Position is one concentrated-liquidity deposit, scoped to a platform.
// Big integers are carried as decimal strings so that JSON output is
// precision-stable regardless of magnitude.
type Position struct {
	ID           string `json:"id"`
	Platform     string `json:"platform"`
	PoolAddress  string `json:"pool_address"`
	Fee          uint32 `json:"fee"`
	TickLower    int32  `json:"tick_lower"`
	TickUpper    int32  `json:"tick_upper"`
	Liquidity    string `json:"liquidity"`
	InVault      bool   `json:"in_vault"`
	VaultAddress string `json:"vault_address,omitempty"`

	// Fee-growth checkpoints captured at discovery time. The inside-last
	// values come from the position record, the outside values from the
	// pool's tick data at the position's bounds.
	FeeGrowthInside0LastX128       string `json:"fee_growth_inside0_last_x128"`
	FeeGrowthInside1LastX128       string `json:"fee_growth_inside1_last_x128"`
	TickLowerFeeGrowthOutside0X128 string `json:"tick_lower_fee_growth_outside0_x128"`
	TickLowerFeeGrowthOutside1X128 string `json:"tick_lower_fee_growth_outside1_x128"`
	TickUpperFeeGrowthOutside0X128 string `json:"tick_upper_fee_growth_outside0_x128"`
	TickUpperFeeGrowthOutside1X128 string `json:"tick_upper_fee_growth_outside1_x128"`
}

// Key identifies a position across aggregation passes.
func (p Position) Key() string {
	return p.Platform + ":" + p.ID
}
