package engine

import (
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/market"
	"github.com/margined-protocol/clearing-core/pkg/math"
	"github.com/margined-protocol/clearing-core/pkg/position"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// LiquidityOutcome is the facade result of an add- or remove-liquidity call.
type LiquidityOutcome struct {
	Status market.Status

	// AmountOut is shares minted on add, quote asset paid on remove.
	AmountOut sdkmath.Int

	// WaitingID identifies the deferred operation when Status is Waiting.
	WaitingID uuid.UUID

	Err error
}

// OpenPositionOutcome is the facade result of an open-position call.
type OpenPositionOutcome struct {
	Status     market.Status
	PositionID uint64
	Position   position.Details
	WaitingID  uuid.UUID
	Err        error
}

// ClosePositionOutcome is the facade result of a close-position call.
type ClosePositionOutcome struct {
	Status    market.Status
	Payout    sdkmath.Int
	WaitingID uuid.UUID
	Err       error
}

// AddLiquidityRequest names the inputs of AddLiquidity.
type AddLiquidityRequest struct {
	MarketIndex  uint64
	Amount       sdkmath.Int
	MinSharesOut sdkmath.Int
}

// RemoveLiquidityRequest names the inputs of RemoveLiquidity.
type RemoveLiquidityRequest struct {
	MarketIndex  uint64
	SharesIn     sdkmath.Int
	MinAmountOut sdkmath.Int
}

// OpenPositionRequest names the inputs of OpenPosition.
type OpenPositionRequest struct {
	MarketIndex     uint64
	Long            bool
	Collateral      sdkmath.Int
	LeverageFactor  sdkmath.Int
	ReserveFactor   sdkmath.Int
	AcceptablePrice sdkmath.Int
}

// AddLiquidity deposits quote asset into a market's pool for shares. When the
// market price is stale the request is deferred and a waiting id returned;
// nothing (including the execution fee) is charged until the deferred
// attempt runs.
func (e *Engine) AddLiquidity(caller types.Principal, req AddLiquidityRequest) LiquidityOutcome {
	if caller.IsAnonymous() {
		return LiquidityOutcome{Status: market.StatusFailed, Err: errors.ErrAnonymousCaller}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.market(req.MarketIndex); err != nil {
		return LiquidityOutcome{Status: market.StatusFailed, Err: err}
	}

	outcome := e.attemptAddLiquidity(caller, req)
	if outcome.Status == market.StatusWaiting {
		outcome.WaitingID = e.enqueue(req.MarketIndex, deferredOp{
			kind:  deferredAddLiquidity,
			owner: caller,
			add:   req,
		})
	}

	e.metrics.ObserveOperation("add_liquidity", outcomeLabel(outcome.Status))
	return outcome
}

// attemptAddLiquidity runs one execution attempt under the lock.
func (e *Engine) attemptAddLiquidity(caller types.Principal, req AddLiquidityRequest) LiquidityOutcome {
	mkt := e.markets[req.MarketIndex]

	charge := req.Amount.Add(e.house.ExecutionFee)
	if e.balance(caller).LT(charge) {
		return LiquidityOutcome{Status: market.StatusFailed, Err: errors.ErrInsufficientBalance}
	}

	result := mkt.AddLiquidity(market.AddLiquidityParams{
		Amount:       req.Amount,
		MinSharesOut: req.MinSharesOut,
	}, e.clock())

	switch result.Status {
	case market.StatusSettled:
		e.debitBalance(caller, req.Amount)
		e.chargeExecutionFee(caller)

		key := shareKey{Owner: caller, Market: req.MarketIndex}
		e.shares[key] = e.shareBalance(caller, req.MarketIndex).Add(result.AmountOut)

		e.observeMarket(req.MarketIndex)
		return LiquidityOutcome{Status: market.StatusSettled, AmountOut: result.AmountOut}

	case market.StatusWaiting:
		return LiquidityOutcome{Status: market.StatusWaiting}

	default:
		return LiquidityOutcome{Status: market.StatusFailed, Err: result.Err}
	}
}

// RemoveLiquidity burns the caller's shares for quote asset.
func (e *Engine) RemoveLiquidity(caller types.Principal, req RemoveLiquidityRequest) LiquidityOutcome {
	if caller.IsAnonymous() {
		return LiquidityOutcome{Status: market.StatusFailed, Err: errors.ErrAnonymousCaller}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.market(req.MarketIndex); err != nil {
		return LiquidityOutcome{Status: market.StatusFailed, Err: err}
	}

	outcome := e.attemptRemoveLiquidity(caller, req)
	if outcome.Status == market.StatusWaiting {
		outcome.WaitingID = e.enqueue(req.MarketIndex, deferredOp{
			kind:   deferredRemoveLiquidity,
			owner:  caller,
			remove: req,
		})
	}

	e.metrics.ObserveOperation("remove_liquidity", outcomeLabel(outcome.Status))
	return outcome
}

func (e *Engine) attemptRemoveLiquidity(caller types.Principal, req RemoveLiquidityRequest) LiquidityOutcome {
	mkt := e.markets[req.MarketIndex]

	if e.shareBalance(caller, req.MarketIndex).LT(req.SharesIn) {
		return LiquidityOutcome{Status: market.StatusFailed, Err: errors.ErrInsufficientShares}
	}
	if e.balance(caller).LT(e.house.ExecutionFee) {
		return LiquidityOutcome{Status: market.StatusFailed, Err: errors.ErrInsufficientBalance}
	}

	result := mkt.RemoveLiquidity(market.RemoveLiquidityParams{
		SharesIn:     req.SharesIn,
		MinAmountOut: req.MinAmountOut,
	}, e.clock())

	switch result.Status {
	case market.StatusSettled:
		e.chargeExecutionFee(caller)

		key := shareKey{Owner: caller, Market: req.MarketIndex}
		e.shares[key] = e.shareBalance(caller, req.MarketIndex).Sub(req.SharesIn)
		e.creditBalance(caller, result.AmountOut)

		e.observeMarket(req.MarketIndex)
		return LiquidityOutcome{Status: market.StatusSettled, AmountOut: result.AmountOut}

	case market.StatusWaiting:
		return LiquidityOutcome{Status: market.StatusWaiting}

	default:
		return LiquidityOutcome{Status: market.StatusFailed, Err: result.Err}
	}
}

// OpenPosition opens a leveraged position for the caller.
func (e *Engine) OpenPosition(caller types.Principal, req OpenPositionRequest) OpenPositionOutcome {
	if caller.IsAnonymous() {
		return OpenPositionOutcome{Status: market.StatusFailed, Err: errors.ErrAnonymousCaller}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.market(req.MarketIndex); err != nil {
		return OpenPositionOutcome{Status: market.StatusFailed, Err: err}
	}

	outcome := e.attemptOpenPosition(caller, req)
	if outcome.Status == market.StatusWaiting {
		outcome.WaitingID = e.enqueue(req.MarketIndex, deferredOp{
			kind:  deferredOpenPosition,
			owner: caller,
			open:  req,
		})
	}

	e.metrics.ObserveOperation("open_position", outcomeLabel(outcome.Status))
	return outcome
}

func (e *Engine) attemptOpenPosition(caller types.Principal, req OpenPositionRequest) OpenPositionOutcome {
	mkt := e.markets[req.MarketIndex]

	charge := req.Collateral.Add(e.house.ExecutionFee)
	if e.balance(caller).LT(charge) {
		return OpenPositionOutcome{Status: market.StatusFailed, Err: errors.ErrInsufficientBalance}
	}

	result := mkt.OpenPosition(market.OpenPositionParams{
		Owner:           caller,
		Long:            req.Long,
		Collateral:      req.Collateral,
		LeverageFactor:  req.LeverageFactor,
		ReserveFactor:   req.ReserveFactor,
		AcceptablePrice: req.AcceptablePrice,
	}, e.clock())

	switch result.Status {
	case market.StatusSettled:
		e.debitBalance(caller, req.Collateral)
		e.chargeExecutionFee(caller)

		e.nextPositionID++
		id := e.nextPositionID
		e.positions[positionKey{Owner: caller, ID: id}] = positionEntry{
			MarketIndex: req.MarketIndex,
			Details:     result.Position,
		}

		e.logger.Debug("position opened",
			zap.String("owner", string(caller)),
			zap.Uint64("market", req.MarketIndex),
			zap.Uint64("position", id),
			zap.Bool("long", req.Long),
			zap.String("collateral", req.Collateral.String()),
		)

		e.observeMarket(req.MarketIndex)
		return OpenPositionOutcome{Status: market.StatusSettled, PositionID: id, Position: result.Position}

	case market.StatusWaiting:
		return OpenPositionOutcome{Status: market.StatusWaiting}

	default:
		return OpenPositionOutcome{Status: market.StatusFailed, Err: result.Err}
	}
}

// ClosePosition closes one of the caller's positions and credits the payout
// to their balance. The execution fee is taken from the balance after the
// payout lands, saturating at zero so a wiped-out position can still close.
func (e *Engine) ClosePosition(caller types.Principal, positionID uint64, acceptablePrice sdkmath.Int) ClosePositionOutcome {
	if caller.IsAnonymous() {
		return ClosePositionOutcome{Status: market.StatusFailed, Err: errors.ErrAnonymousCaller}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	outcome := e.attemptClosePosition(caller, positionID, acceptablePrice)
	if outcome.Status == market.StatusWaiting {
		entry := e.positions[positionKey{Owner: caller, ID: positionID}]
		outcome.WaitingID = e.enqueue(entry.MarketIndex, deferredOp{
			kind:            deferredClosePosition,
			owner:           caller,
			closePositionID: positionID,
			closeAcceptable: acceptablePrice,
		})
	}

	e.metrics.ObserveOperation("close_position", outcomeLabel(outcome.Status))
	return outcome
}

func (e *Engine) attemptClosePosition(caller types.Principal, positionID uint64, acceptablePrice sdkmath.Int) ClosePositionOutcome {
	key := positionKey{Owner: caller, ID: positionID}
	entry, ok := e.positions[key]
	if !ok {
		return ClosePositionOutcome{Status: market.StatusFailed, Err: errors.ErrInvalidPosition}
	}

	mkt := e.markets[entry.MarketIndex]

	result := mkt.ClosePosition(entry.Details, acceptablePrice, e.clock())

	switch result.Status {
	case market.StatusSettled:
		delete(e.positions, key)
		e.creditBalance(caller, result.Payout)

		fee := math.MinInt(e.house.ExecutionFee, e.balance(caller))
		e.debitBalance(caller, fee)
		e.house.CollectedFees = e.house.CollectedFees.Add(fee)

		e.logger.Debug("position closed",
			zap.String("owner", string(caller)),
			zap.Uint64("market", entry.MarketIndex),
			zap.Uint64("position", positionID),
			zap.String("payout", result.Payout.String()),
		)

		e.observeMarket(entry.MarketIndex)
		return ClosePositionOutcome{Status: market.StatusSettled, Payout: result.Payout}

	case market.StatusWaiting:
		return ClosePositionOutcome{Status: market.StatusWaiting}

	default:
		return ClosePositionOutcome{Status: market.StatusFailed, Err: result.Err}
	}
}

// CollectBorrowFees accrues borrow fees on a market, deferring behind the
// price gate when the price is stale. Admin or scheduler.
func (e *Engine) CollectBorrowFees(caller types.Principal, marketIndex uint64) (uuid.UUID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return uuid.Nil, errors.ErrAnonymousCaller
	}

	mkt, err := e.market(marketIndex)
	if err != nil {
		return uuid.Nil, err
	}

	if mkt.CollectBorrowFees(e.clock()) == market.StatusWaiting {
		id := e.enqueue(marketIndex, deferredOp{kind: deferredCollectBorrowFees, owner: caller})
		e.metrics.ObserveOperation("collect_borrow_fees", "waiting")
		return id, nil
	}

	e.metrics.ObserveOperation("collect_borrow_fees", "settled")
	return uuid.Nil, nil
}

func outcomeLabel(s market.Status) string {
	switch s {
	case market.StatusSettled:
		return "settled"
	case market.StatusWaiting:
		return "waiting"
	default:
		return "failed"
	}
}
