package model

import "time"

// Vault is a pooled custody contract whose positions are discovered at
// aggregation time via each position's custody flag.
type Vault struct {
	Address     string   `json:"address"`
	PositionIDs []string `json:"position_ids"`

	// Metrics are owned by the TVL calculator and replaced wholesale on
	// each successful pass, never patched field by field.
	Metrics *VaultMetrics `json:"metrics,omitempty"`
}

// VaultMetrics is one TVL computation result. Fiat amounts are decimal
// strings produced once, at the output boundary.
type VaultMetrics struct {
	VaultAddress   string    `json:"vault_address"`
	PositionsTVL   string    `json:"positions_tvl"`
	IdleTVL        string    `json:"idle_tvl"`
	HasPartialData bool      `json:"has_partial_data"`
	LastUpdate     time.Time `json:"last_update"`
}
