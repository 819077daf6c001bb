package aggregate

import "math/big"

// fiatDisplayScale is the decimal precision of output fiat strings.
// Truncation happens exactly once, here, at the boundary.
const fiatDisplayScale = 2

func amountRat(value *big.Int, decimals uint8) *big.Rat {
	if value == nil {
		return new(big.Rat)
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(new(big.Int).Set(value), denom)
}

func formatFiat(value *big.Rat) string {
	if value == nil {
		return "0.00"
	}
	return value.FloatString(fiatDisplayScale)
}
