package engine

import (
	"context"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/market"
	"github.com/margined-protocol/clearing-core/pkg/oracle"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

type deferredKind int

const (
	deferredCollectBorrowFees deferredKind = iota
	deferredAddLiquidity
	deferredClosePosition
	deferredOpenPosition
	deferredRemoveLiquidity
)

func (k deferredKind) priority() uint8 {
	switch k {
	case deferredCollectBorrowFees:
		return types.PriorityCollectBorrowFees
	case deferredAddLiquidity:
		return types.PriorityAddLiquidity
	case deferredClosePosition:
		return types.PriorityClosePosition
	case deferredOpenPosition:
		return types.PriorityOpenPosition
	default:
		return types.PriorityRemoveLiquidity
	}
}

// deferredOp is one operation waiting on a fresh price. The kind selects
// which payload fields are meaningful; a tagged variant keeps the drain
// order trivially auditable.
type deferredOp struct {
	id    uuid.UUID
	kind  deferredKind
	owner types.Principal

	open   OpenPositionRequest
	add    AddLiquidityRequest
	remove RemoveLiquidityRequest

	closePositionID uint64
	closeAcceptable sdkmath.Int
}

// deferralQueue is a per-market timer plus priority-indexed FIFO lists of
// deferred operations.
type deferralQueue struct {
	timer *time.Timer
	ops   map[uint8][]deferredOp
}

func newDeferralQueue() *deferralQueue {
	return &deferralQueue{ops: make(map[uint8][]deferredOp)}
}

func (q *deferralQueue) depth() int {
	total := 0
	for _, list := range q.ops {
		total += len(list)
	}
	return total
}

// OperationStatus is the queryable state of a deferred operation.
type OperationStatus struct {
	// Done is false while the operation is still waiting.
	Done bool

	Status market.Status

	// AmountOut carries shares or quote asset for liquidity operations.
	AmountOut sdkmath.Int

	// PositionID is set when a deferred open settled.
	PositionID uint64

	// Payout is set when a deferred close settled.
	Payout sdkmath.Int

	Err error
}

// OperationStatus resolves a waiting id to its current state.
func (e *Engine) OperationStatus(id uuid.UUID) (OperationStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status, ok := e.statuses[id]
	if !ok {
		return OperationStatus{}, false
	}
	return *status, true
}

// enqueue registers a deferred operation and re-arms the market's timer.
// Callers hold the lock.
func (e *Engine) enqueue(marketIndex uint64, op deferredOp) uuid.UUID {
	op.id = uuid.New()

	q := e.queues[marketIndex]
	if q.timer != nil {
		// Pending operations accumulate on the replacement timer.
		q.timer.Stop()
	}

	priority := op.kind.priority()
	q.ops[priority] = append(q.ops[priority], op)
	q.timer = time.AfterFunc(types.TimerDelay, func() {
		e.fireQueue(marketIndex)
	})

	e.statuses[op.id] = &OperationStatus{}
	e.metrics.SetDeferredOps(marketIndex, q.depth())

	e.logger.Debug("operation deferred for fresh price",
		zap.Uint64("market", marketIndex),
		zap.Uint8("priority", priority),
		zap.String("id", op.id.String()),
	)
	return op.id
}

// RetryDeferred re-arms a market's deferral timer after an oracle outage.
// Admin only.
func (e *Engine) RetryDeferred(caller types.Principal, marketIndex uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return errors.ErrAnonymousCaller
	}

	q, ok := e.queues[marketIndex]
	if !ok {
		return errors.ErrMarketNotFound
	}
	if q.depth() == 0 {
		return nil
	}

	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(types.TimerDelay, func() {
		e.fireQueue(marketIndex)
	})
	return nil
}

// fireQueue fetches a fresh price and drains the market's deferred
// operations in ascending priority order. On oracle failure the queue is
// left armed with its operations intact; the next enqueue or an admin retry
// re-attempts.
func (e *Engine) fireQueue(marketIndex uint64) {
	e.mu.Lock()
	base := e.markets[marketIndex].IndexAsset
	quote := e.house.QuoteAsset
	e.mu.Unlock()

	// The oracle fetch is a suspension point: no lock is held, other
	// operations may run. Market state is re-read after the fetch.
	rate, err := oracle.FetchWithRetry(context.Background(), e.oracle, base, quote)
	if err != nil {
		e.metrics.IncOracleError(marketIndex)
		e.logger.Error("oracle fetch failed, queue left armed",
			zap.Uint64("market", marketIndex),
			zap.Error(err),
		)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	e.markets[marketIndex].Pricing.UpdateFromOracle(rate.Rate, rate.Decimals, now)

	q := e.queues[marketIndex]
	priorities := make([]int, 0, len(q.ops))
	for priority := range q.ops {
		priorities = append(priorities, int(priority))
	}
	sort.Ints(priorities)

	for _, priority := range priorities {
		for _, op := range q.ops[uint8(priority)] {
			e.executeDeferred(marketIndex, op)
		}
	}

	q.ops = make(map[uint8][]deferredOp)
	e.metrics.SetDeferredOps(marketIndex, 0)
}

// executeDeferred runs one drained operation against the now-fresh price and
// records its result for the waiting caller. Callers hold the lock.
func (e *Engine) executeDeferred(marketIndex uint64, op deferredOp) {
	status := e.statuses[op.id]
	status.Done = true

	switch op.kind {
	case deferredCollectBorrowFees:
		status.Status = e.markets[marketIndex].CollectBorrowFees(e.clock())

	case deferredAddLiquidity:
		outcome := e.attemptAddLiquidity(op.owner, op.add)
		status.Status = outcome.Status
		status.AmountOut = outcome.AmountOut
		status.Err = outcome.Err

	case deferredClosePosition:
		outcome := e.attemptClosePosition(op.owner, op.closePositionID, op.closeAcceptable)
		status.Status = outcome.Status
		status.Payout = outcome.Payout
		status.Err = outcome.Err

	case deferredOpenPosition:
		outcome := e.attemptOpenPosition(op.owner, op.open)
		status.Status = outcome.Status
		status.PositionID = outcome.PositionID
		status.Err = outcome.Err

	case deferredRemoveLiquidity:
		outcome := e.attemptRemoveLiquidity(op.owner, op.remove)
		status.Status = outcome.Status
		status.AmountOut = outcome.AmountOut
		status.Err = outcome.Err
	}

	if status.Status == market.StatusWaiting {
		// The drain runs against the price fetched moments ago; an op that
		// still sees it stale cannot make progress and fails out.
		status.Status = market.StatusFailed
		status.Err = errors.ErrStalePrice
	}

	e.metrics.ObserveOperation("deferred", outcomeLabel(status.Status))
}
