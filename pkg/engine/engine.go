package engine

import (
	"context"
	"math/big"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/ledger"
	"github.com/margined-protocol/clearing-core/pkg/market"
	"github.com/margined-protocol/clearing-core/pkg/metrics"
	"github.com/margined-protocol/clearing-core/pkg/oracle"
	"github.com/margined-protocol/clearing-core/pkg/position"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// HouseSettings are the process-wide clearing-house parameters.
type HouseSettings struct {
	// QuoteAsset is the house's quote-asset descriptor, the second leg of
	// every oracle pair.
	QuoteAsset types.AssetPricingDetails

	// ExecutionFee is charged per executed operation attempt.
	ExecutionFee sdkmath.Int

	// CollectedFees accumulates the execution fees charged.
	CollectedFees sdkmath.Int
}

type shareKey struct {
	Owner  types.Principal
	Market uint64
}

type positionKey struct {
	Owner types.Principal
	ID    uint64
}

type positionEntry struct {
	MarketIndex uint64
	Details     position.Details
}

// Engine owns all clearing-house state: the markets, user balances, share
// balances, the position index and the per-market deferral queues. Every
// mutation passes through it under a single lock, which realises the
// single-threaded cooperative execution model: one operation runs to
// completion (or to its oracle/ledger suspension point) before another
// begins.
type Engine struct {
	mu sync.Mutex

	logger  *zap.Logger
	clock   func() time.Time
	oracle  oracle.PriceOracle
	assets  ledger.AssetLedger
	metrics *metrics.EngineMetrics

	admin   types.Principal
	house   HouseSettings
	markets []*market.Market

	balances  map[types.Principal]sdkmath.Int
	shares    map[shareKey]sdkmath.Int
	positions map[positionKey]positionEntry

	nextPositionID uint64

	queues   map[uint64]*deferralQueue
	statuses map[uuid.UUID]*OperationStatus
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithMetrics wires a metrics registry.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine with no markets.
func New(logger *zap.Logger, admin types.Principal, house HouseSettings, priceOracle oracle.PriceOracle, assets ledger.AssetLedger, opts ...Option) *Engine {
	e := &Engine{
		logger:    logger,
		clock:     time.Now,
		oracle:    priceOracle,
		assets:    assets,
		admin:     admin,
		house:     house,
		balances:  make(map[types.Principal]sdkmath.Int),
		shares:    make(map[shareKey]sdkmath.Int),
		positions: make(map[positionKey]positionEntry),
		queues:    make(map[uint64]*deferralQueue),
		statuses:  make(map[uuid.UUID]*OperationStatus),
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateMarket appends a new market and returns its index. Admin only.
func (e *Engine) CreateMarket(caller types.Principal, params market.CreateParams) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return 0, errors.ErrAnonymousCaller
	}

	e.markets = append(e.markets, market.New(params, e.clock()))
	index := uint64(len(e.markets) - 1)
	e.queues[index] = newDeferralQueue()

	e.logger.Debug("market created",
		zap.Uint64("market", index),
		zap.String("index_asset", params.IndexAsset.Symbol),
	)
	return index, nil
}

// Deposit pulls quote asset from the caller through the ledger and credits
// their balance. The balance is only credited after the ledger confirms.
func (e *Engine) Deposit(ctx context.Context, caller types.Principal, amount sdkmath.Int, ref *ledger.TxRef) (bool, error) {
	if caller.IsAnonymous() {
		return false, errors.ErrAnonymousCaller
	}

	ok, err := e.assets.SendIn(ctx, amount, caller, ref)
	if err != nil || !ok {
		e.logger.Error("deposit transfer failed",
			zap.String("principal", string(caller)),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return false, errors.ErrLedgerFailed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.creditBalance(caller, amount)
	return true, nil
}

// Withdraw debits the caller's balance and pays out through the ledger. On
// ledger failure the balance is refunded.
func (e *Engine) Withdraw(ctx context.Context, caller types.Principal, amount sdkmath.Int) (bool, error) {
	if caller.IsAnonymous() {
		return false, errors.ErrAnonymousCaller
	}

	e.mu.Lock()
	if e.balance(caller).LT(amount) {
		e.mu.Unlock()
		return false, errors.ErrInsufficientBalance
	}
	e.debitBalance(caller, amount)
	e.mu.Unlock()

	ok, err := e.assets.SendOut(ctx, amount, caller)
	if err != nil || !ok {
		e.mu.Lock()
		e.creditBalance(caller, amount)
		e.mu.Unlock()

		e.logger.Error("withdraw transfer failed, balance refunded",
			zap.String("principal", string(caller)),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return false, errors.ErrLedgerFailed
	}

	return true, nil
}

// SettleFunding settles funding payments on a market. Admin or scheduler.
func (e *Engine) SettleFunding(caller types.Principal, marketIndex uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return errors.ErrAnonymousCaller
	}

	mkt, err := e.market(marketIndex)
	if err != nil {
		return err
	}

	mkt.SettleFunding(e.clock())
	return nil
}

// market returns the indexed market. Callers hold the lock.
func (e *Engine) market(index uint64) (*market.Market, error) {
	if index >= uint64(len(e.markets)) {
		return nil, errors.ErrMarketNotFound
	}
	return e.markets[index], nil
}

func (e *Engine) balance(p types.Principal) sdkmath.Int {
	if b, ok := e.balances[p]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

func (e *Engine) creditBalance(p types.Principal, amount sdkmath.Int) {
	e.balances[p] = e.balance(p).Add(amount)
}

func (e *Engine) debitBalance(p types.Principal, amount sdkmath.Int) {
	e.balances[p] = e.balance(p).Sub(amount)
}

func (e *Engine) shareBalance(p types.Principal, marketIndex uint64) sdkmath.Int {
	if s, ok := e.shares[shareKey{Owner: p, Market: marketIndex}]; ok {
		return s
	}
	return sdkmath.ZeroInt()
}

// chargeExecutionFee moves the execution fee from the balance into the house
// accumulator. Callers have verified the balance covers it.
func (e *Engine) chargeExecutionFee(p types.Principal) {
	e.debitBalance(p, e.house.ExecutionFee)
	e.house.CollectedFees = e.house.CollectedFees.Add(e.house.ExecutionFee)
}

func (e *Engine) observeMarket(index uint64) {
	mkt := e.markets[index]
	free, _ := new(big.Float).SetInt(mkt.Liquidity.FreeLiquidity.BigInt()).Float64()
	e.metrics.SetFreeLiquidity(index, free)
	bad, _ := new(big.Float).SetInt(mkt.Liquidity.CurrentHouseBadDebt.BigInt()).Float64()
	e.metrics.SetHouseBadDebt(index, bad)
}
