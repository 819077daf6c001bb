package univ3

import (
	"math"
	"math/big"
)

var (
	// Q96 is 2^96, the fixed-point scale of sqrtPriceX96.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q128 is 2^128, the fixed-point scale of fee-growth counters.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)
	// Q256 is 2^256, the modulus of fee-growth arithmetic.
	Q256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// SqrtPriceFromTick converts a tick to its Q96 square-root price.
func SqrtPriceFromTick(tick int32) *big.Int {
	price := math.Pow(1.0001, math.Abs(float64(tick)))
	if tick < 0 {
		price = 1 / price
	}
	sqrtPrice := math.Sqrt(price)

	two96 := new(big.Float).SetInt(Q96)
	scaled := new(big.Float).Mul(big.NewFloat(sqrtPrice), two96)

	out := new(big.Int)
	scaled.Int(out)
	return out
}

// AmountsForLiquidity derives the two underlying token quantities from a
// liquidity amount and the three sqrt-price points: current, lower bound,
// upper bound. Amounts are clamped to zero when the current price sits
// outside the range on either side.
func AmountsForLiquidity(liquidity, sqrtPrice, sqrtLower, sqrtUpper *big.Int) (*big.Int, *big.Int) {
	amount0 := big.NewInt(0)
	amount1 := big.NewInt(0)
	if liquidity == nil || liquidity.Sign() <= 0 {
		return amount0, amount1
	}
	if sqrtLower == nil || sqrtUpper == nil || sqrtLower.Sign() <= 0 || sqrtUpper.Sign() <= 0 {
		return amount0, amount1
	}

	switch {
	case sqrtPrice == nil || sqrtPrice.Cmp(sqrtLower) <= 0:
		// Price below the range: only token0.
		numerator := new(big.Int).Sub(sqrtUpper, sqrtLower)
		numerator.Mul(numerator, liquidity)
		numerator.Mul(numerator, Q96)
		denominator := new(big.Int).Mul(sqrtLower, sqrtUpper)
		amount0.Div(numerator, denominator)
	case sqrtPrice.Cmp(sqrtUpper) >= 0:
		// Price above the range: only token1.
		numerator := new(big.Int).Sub(sqrtUpper, sqrtLower)
		numerator.Mul(numerator, liquidity)
		amount1.Div(numerator, Q96)
	default:
		// Price inside the range: both tokens.
		numerator0 := new(big.Int).Sub(sqrtUpper, sqrtPrice)
		numerator0.Mul(numerator0, liquidity)
		numerator0.Mul(numerator0, Q96)
		denominator0 := new(big.Int).Mul(sqrtPrice, sqrtUpper)
		amount0.Div(numerator0, denominator0)

		numerator1 := new(big.Int).Sub(sqrtPrice, sqrtLower)
		numerator1.Mul(numerator1, liquidity)
		amount1.Div(numerator1, Q96)
	}

	if amount0.Sign() < 0 {
		amount0.SetInt64(0)
	}
	if amount1.Sign() < 0 {
		amount1.SetInt64(0)
	}
	return amount0, amount1
}

// SubIn256 subtracts y from x modulo 2^256. Fee-growth counters wrap on
// overflow; the wrapped difference is the correct accrual.
func SubIn256(x, y *big.Int) *big.Int {
	difference := new(big.Int).Sub(x, y)
	if difference.Sign() < 0 {
		return difference.Add(Q256, difference)
	}
	return difference
}

// FeeGrowthInside computes the fee growth accrued inside a tick range
// from the global counters and the outside counters at each bound.
func FeeGrowthInside(
	currentTick, tickLower, tickUpper int32,
	global0, global1 *big.Int,
	lowerOutside0, lowerOutside1 *big.Int,
	upperOutside0, upperOutside1 *big.Int,
) (*big.Int, *big.Int) {
	above0 := new(big.Int)
	above1 := new(big.Int)
	if currentTick >= tickUpper {
		above0 = SubIn256(global0, upperOutside0)
		above1 = SubIn256(global1, upperOutside1)
	} else {
		above0.Set(upperOutside0)
		above1.Set(upperOutside1)
	}

	below0 := new(big.Int)
	below1 := new(big.Int)
	if currentTick >= tickLower {
		below0.Set(lowerOutside0)
		below1.Set(lowerOutside1)
	} else {
		below0 = SubIn256(global0, lowerOutside0)
		below1 = SubIn256(global1, lowerOutside1)
	}

	inside0 := SubIn256(global0, below0)
	inside0 = SubIn256(inside0, above0)
	inside1 := SubIn256(global1, below1)
	inside1 = SubIn256(inside1, above1)
	return inside0, inside1
}

// UncollectedFees converts the fee-growth delta since the position's last
// checkpoint into token amounts.
func UncollectedFees(liquidity, inside0, inside1, insideLast0, insideLast1 *big.Int) (*big.Int, *big.Int) {
	if liquidity == nil || liquidity.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	fees0 := SubIn256(inside0, insideLast0)
	fees1 := SubIn256(inside1, insideLast1)
	fees0.Mul(fees0, liquidity)
	fees1.Mul(fees1, liquidity)
	fees0.Div(fees0, Q128)
	fees1.Div(fees1, Q128)
	return fees0, fees1
}

// TickToPrice converts a tick to a token1/token0 price adjusted for
// decimals. Rounding is toward zero and happens only here, at the
// display boundary.
func TickToPrice(tick int32, decimals0, decimals1 uint8) float64 {
	raw := math.Pow(1.0001, float64(tick))
	return truncatePrice(raw * decimalShift(decimals0, decimals1))
}

// PriceFromSqrtPrice converts a Q96 sqrt price to a token1/token0 price
// adjusted for decimals, rounding toward zero at the boundary.
func PriceFromSqrtPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}
	sqrt := new(big.Float).SetMode(big.ToZero).SetInt(sqrtPriceX96)
	sqrt.Quo(sqrt, new(big.Float).SetInt(Q96))
	price := new(big.Float).SetMode(big.ToZero).Mul(sqrt, sqrt)
	raw, _ := price.Float64()
	return truncatePrice(raw * decimalShift(decimals0, decimals1))
}

func decimalShift(decimals0, decimals1 uint8) float64 {
	return math.Pow(10, float64(int(decimals0))-float64(int(decimals1)))
}

// truncatePrice applies the round-toward-zero policy at a fixed display
// precision so repeated conversions are deterministic.
func truncatePrice(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	const displayScale = 1e12
	return math.Trunc(value*displayScale) / displayScale
}
