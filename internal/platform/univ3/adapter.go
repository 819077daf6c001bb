package univ3

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/platform"
)

// Config configures one V3 adapter instance. Uniswap V3 and its forks
// share the call surface, so forks are separate instances of this
// adapter with their own name and contract addresses.
type Config struct {
	Name            string
	PositionManager common.Address
	Factory         common.Address
}

// Adapter discovers and values positions held through a V3-style NFT
// position manager.
type Adapter struct {
	cfg    Config
	caller platform.ContractCaller
	logger *zap.Logger

	mu     sync.RWMutex
	tokens map[common.Address]model.Token
}

func NewAdapter(cfg Config, caller platform.ContractCaller, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		cfg:    cfg,
		caller: caller,
		logger: logger,
		tokens: make(map[common.Address]model.Token),
	}
}

func (a *Adapter) Name() string {
	return a.cfg.Name
}

// GetPositions enumerates the owner's position NFTs and resolves each to
// a position record plus its pool and token reference data. No positions
// is an empty result, not an error.
func (a *Adapter) GetPositions(ctx context.Context, owner common.Address, chainID uint64) (platform.PositionSet, error) {
	out := platform.PositionSet{
		Pools:  make(map[string]model.Pool),
		Tokens: make(map[string]model.Token),
	}
	if a.caller == nil {
		return out, fmt.Errorf("%w: %s: caller is nil", model.ErrSourceUnavailable, a.cfg.Name)
	}

	managerABI, err := PositionManagerABI()
	if err != nil {
		return out, fmt.Errorf("parse manager abi: %w", err)
	}

	values, err := a.call(ctx, a.cfg.PositionManager, managerABI, "balanceOf", owner)
	if err != nil {
		return out, fmt.Errorf("%w: %s: balanceOf: %s", model.ErrSourceUnavailable, a.cfg.Name, err)
	}
	count, err := asBigInt(values[0])
	if err != nil {
		return out, fmt.Errorf("balanceOf: %w", err)
	}

	total := count.Int64()
	for i := int64(0); i < total; i++ {
		values, err := a.call(ctx, a.cfg.PositionManager, managerABI, "tokenOfOwnerByIndex", owner, big.NewInt(i))
		if err != nil {
			return out, fmt.Errorf("%w: %s: tokenOfOwnerByIndex %d: %s", model.ErrSourceUnavailable, a.cfg.Name, i, err)
		}
		tokenID, err := asBigInt(values[0])
		if err != nil {
			return out, fmt.Errorf("tokenOfOwnerByIndex %d: %w", i, err)
		}

		position, pool, err := a.resolvePosition(ctx, managerABI, tokenID, out.Tokens)
		if err != nil {
			return out, err
		}
		out.Positions = append(out.Positions, position)
		out.Pools[pool.Address] = pool
	}

	return out, nil
}

func (a *Adapter) resolvePosition(ctx context.Context, managerABI abi.ABI, tokenID *big.Int, tokens map[string]model.Token) (model.Position, model.Pool, error) {
	var position model.Position
	var pool model.Pool

	values, err := a.call(ctx, a.cfg.PositionManager, managerABI, "positions", tokenID)
	if err != nil {
		return position, pool, fmt.Errorf("%w: %s: positions %s: %s", model.ErrSourceUnavailable, a.cfg.Name, tokenID, err)
	}
	if len(values) != 12 {
		return position, pool, fmt.Errorf("unexpected positions values: %d", len(values))
	}

	token0, err := asAddress(values[2])
	if err != nil {
		return position, pool, fmt.Errorf("token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return position, pool, fmt.Errorf("token1: %w", err)
	}
	feeInt, err := asBigInt(values[4])
	if err != nil {
		return position, pool, fmt.Errorf("fee: %w", err)
	}
	tickLowerInt, err := asBigInt(values[5])
	if err != nil {
		return position, pool, fmt.Errorf("tickLower: %w", err)
	}
	tickUpperInt, err := asBigInt(values[6])
	if err != nil {
		return position, pool, fmt.Errorf("tickUpper: %w", err)
	}
	liquidity, err := asBigInt(values[7])
	if err != nil {
		return position, pool, fmt.Errorf("liquidity: %w", err)
	}
	insideLast0, err := asBigInt(values[8])
	if err != nil {
		return position, pool, fmt.Errorf("feeGrowthInside0Last: %w", err)
	}
	insideLast1, err := asBigInt(values[9])
	if err != nil {
		return position, pool, fmt.Errorf("feeGrowthInside1Last: %w", err)
	}

	tickLower, err := int24FromBig(tickLowerInt)
	if err != nil {
		return position, pool, fmt.Errorf("tickLower: %w", err)
	}
	tickUpper, err := int24FromBig(tickUpperInt)
	if err != nil {
		return position, pool, fmt.Errorf("tickUpper: %w", err)
	}
	fee := uint32(feeInt.Uint64())

	poolAddr, err := a.lookupPool(ctx, token0, token1, fee)
	if err != nil {
		return position, pool, err
	}

	pool, lowerOutside, upperOutside, err := a.readPoolState(ctx, poolAddr, token0, token1, fee, tickLower, tickUpper)
	if err != nil {
		return position, pool, err
	}

	for _, addr := range []common.Address{token0, token1} {
		if _, ok := tokens[addr.Hex()]; ok {
			continue
		}
		meta, err := a.tokenMeta(ctx, addr)
		if err != nil {
			return position, pool, fmt.Errorf("%w: %s: token %s: %s", model.ErrSourceUnavailable, a.cfg.Name, addr.Hex(), err)
		}
		tokens[addr.Hex()] = meta
	}

	position = model.Position{
		ID:                             tokenID.String(),
		Platform:                       a.cfg.Name,
		PoolAddress:                    pool.Address,
		Fee:                            fee,
		TickLower:                      tickLower,
		TickUpper:                      tickUpper,
		Liquidity:                      liquidity.String(),
		FeeGrowthInside0LastX128:       insideLast0.String(),
		FeeGrowthInside1LastX128:       insideLast1.String(),
		TickLowerFeeGrowthOutside0X128: lowerOutside[0].String(),
		TickLowerFeeGrowthOutside1X128: lowerOutside[1].String(),
		TickUpperFeeGrowthOutside0X128: upperOutside[0].String(),
		TickUpperFeeGrowthOutside1X128: upperOutside[1].String(),
	}
	return position, pool, nil
}

func (a *Adapter) lookupPool(ctx context.Context, token0, token1 common.Address, fee uint32) (common.Address, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := a.call(ctx, a.cfg.Factory, factoryABI, "getPool", token0, token1, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s: getPool: %s", model.ErrSourceUnavailable, a.cfg.Name, err)
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("getPool: %w", err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: pool for %s/%s fee %d", model.ErrMissingReferenceData, token0.Hex(), token1.Hex(), fee)
	}
	return addr, nil
}

func (a *Adapter) readPoolState(ctx context.Context, poolAddr, token0, token1 common.Address, fee uint32, tickLower, tickUpper int32) (model.Pool, [2]*big.Int, [2]*big.Int, error) {
	var pool model.Pool
	var lowerOutside, upperOutside [2]*big.Int

	poolABI, err := PoolABI()
	if err != nil {
		return pool, lowerOutside, upperOutside, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := a.call(ctx, poolAddr, poolABI, "slot0")
	if err != nil {
		return pool, lowerOutside, upperOutside, fmt.Errorf("%w: %s: slot0: %s", model.ErrSourceUnavailable, a.cfg.Name, err)
	}
	if len(values) < 2 {
		return pool, lowerOutside, upperOutside, fmt.Errorf("unexpected slot0 values: %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return pool, lowerOutside, upperOutside, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return pool, lowerOutside, upperOutside, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return pool, lowerOutside, upperOutside, fmt.Errorf("tick: %w", err)
	}

	global := [2]*big.Int{}
	for i, method := range []string{"feeGrowthGlobal0X128", "feeGrowthGlobal1X128"} {
		values, err := a.call(ctx, poolAddr, poolABI, method)
		if err != nil {
			return pool, lowerOutside, upperOutside, fmt.Errorf("%w: %s: %s: %s", model.ErrSourceUnavailable, a.cfg.Name, method, err)
		}
		global[i], err = asBigInt(values[0])
		if err != nil {
			return pool, lowerOutside, upperOutside, fmt.Errorf("%s: %w", method, err)
		}
	}

	lowerOutside, err = a.tickOutside(ctx, poolAddr, poolABI, tickLower)
	if err != nil {
		return pool, lowerOutside, upperOutside, err
	}
	upperOutside, err = a.tickOutside(ctx, poolAddr, poolABI, tickUpper)
	if err != nil {
		return pool, lowerOutside, upperOutside, err
	}

	pool = model.Pool{
		Address:              poolAddr.Hex(),
		Token0:               token0.Hex(),
		Token1:               token1.Hex(),
		Fee:                  fee,
		Tick:                 tick,
		SqrtPriceX96:         sqrtPrice.String(),
		FeeGrowthGlobal0X128: global[0].String(),
		FeeGrowthGlobal1X128: global[1].String(),
	}
	return pool, lowerOutside, upperOutside, nil
}

func (a *Adapter) tickOutside(ctx context.Context, poolAddr common.Address, poolABI abi.ABI, tick int32) ([2]*big.Int, error) {
	var outside [2]*big.Int
	values, err := a.call(ctx, poolAddr, poolABI, "ticks", big.NewInt(int64(tick)))
	if err != nil {
		return outside, fmt.Errorf("%w: %s: ticks %d: %s", model.ErrSourceUnavailable, a.cfg.Name, tick, err)
	}
	if len(values) < 4 {
		return outside, fmt.Errorf("unexpected ticks values: %d", len(values))
	}
	outside[0], err = asBigInt(values[2])
	if err != nil {
		return outside, fmt.Errorf("feeGrowthOutside0: %w", err)
	}
	outside[1], err = asBigInt(values[3])
	if err != nil {
		return outside, fmt.Errorf("feeGrowthOutside1: %w", err)
	}
	return outside, nil
}

func (a *Adapter) tokenMeta(ctx context.Context, addr common.Address) (model.Token, error) {
	a.mu.RLock()
	meta, ok := a.tokens[addr]
	a.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := FetchTokenMeta(ctx, a.caller, addr, a.logger)
	if err != nil {
		return model.Token{}, err
	}

	a.mu.Lock()
	a.tokens[addr] = meta
	a.mu.Unlock()
	return meta, nil
}

func (a *Adapter) call(ctx context.Context, target common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := a.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// CalculateTokenAmounts converts liquidity and the tick range into the
// two underlying token quantities at the pool's current price.
func (a *Adapter) CalculateTokenAmounts(pos model.Position, pool model.Pool, token0, token1 model.Token) (platform.TokenAmounts, error) {
	liquidity, err := parseBigInt(pos.Liquidity)
	if err != nil {
		return platform.TokenAmounts{}, fmt.Errorf("liquidity: %w", err)
	}
	sqrtPrice, err := parseBigInt(pool.SqrtPriceX96)
	if err != nil {
		return platform.TokenAmounts{}, fmt.Errorf("sqrt price: %w", err)
	}

	amount0, amount1 := AmountsForLiquidity(
		liquidity,
		sqrtPrice,
		SqrtPriceFromTick(pos.TickLower),
		SqrtPriceFromTick(pos.TickUpper),
	)
	return platform.TokenAmounts{Amount0: amount0, Amount1: amount1}, nil
}

// CalculateFees computes uncollected fees from the pool's fee-growth
// counters and the position's checkpoints.
func (a *Adapter) CalculateFees(pos model.Position, pool model.Pool, token0, token1 model.Token) (platform.TokenAmounts, error) {
	liquidity, err := parseBigInt(pos.Liquidity)
	if err != nil {
		return platform.TokenAmounts{}, fmt.Errorf("liquidity: %w", err)
	}

	parsed := make([]*big.Int, 0, 8)
	for _, field := range []struct {
		name  string
		value string
	}{
		{"feeGrowthGlobal0", pool.FeeGrowthGlobal0X128},
		{"feeGrowthGlobal1", pool.FeeGrowthGlobal1X128},
		{"tickLowerOutside0", pos.TickLowerFeeGrowthOutside0X128},
		{"tickLowerOutside1", pos.TickLowerFeeGrowthOutside1X128},
		{"tickUpperOutside0", pos.TickUpperFeeGrowthOutside0X128},
		{"tickUpperOutside1", pos.TickUpperFeeGrowthOutside1X128},
		{"feeGrowthInside0Last", pos.FeeGrowthInside0LastX128},
		{"feeGrowthInside1Last", pos.FeeGrowthInside1LastX128},
	} {
		value, err := parseBigInt(field.value)
		if err != nil {
			return platform.TokenAmounts{}, fmt.Errorf("%s: %w", field.name, err)
		}
		parsed = append(parsed, value)
	}

	inside0, inside1 := FeeGrowthInside(
		pool.Tick, pos.TickLower, pos.TickUpper,
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5],
	)
	fees0, fees1 := UncollectedFees(liquidity, inside0, inside1, parsed[6], parsed[7])
	return platform.TokenAmounts{Amount0: fees0, Amount1: fees1}, nil
}

// IsPositionInRange reports whether the pool tick lies within the
// position's bounds, inclusive on both ends.
func (a *Adapter) IsPositionInRange(pos model.Position, pool model.Pool) bool {
	return pool.Tick >= pos.TickLower && pool.Tick <= pos.TickUpper
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
