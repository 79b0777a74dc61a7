package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	collectInterval = time.Minute
	settleInterval  = 8 * time.Hour
)

// StartMarketSchedule runs a market's periodic upkeep until the context is
// cancelled: borrow fees are collected every minute and funding is settled
// once at least eight hours have elapsed since the previous settlement.
func (e *Engine) StartMarketSchedule(ctx context.Context, marketIndex uint64) error {
	e.mu.Lock()
	if _, err := e.market(marketIndex); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	go e.runMarketSchedule(ctx, marketIndex)
	return nil
}

func (e *Engine) runMarketSchedule(ctx context.Context, marketIndex uint64) {
	ticker := time.NewTicker(collectInterval)
	defer ticker.Stop()

	lastSettle := e.clock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.CollectBorrowFees(e.admin, marketIndex); err != nil {
				e.logger.Error("scheduled borrow-fee collection failed",
					zap.Uint64("market", marketIndex),
					zap.Error(err),
				)
			}

			if e.clock().Sub(lastSettle) >= settleInterval {
				if err := e.SettleFunding(e.admin, marketIndex); err != nil {
					e.logger.Error("scheduled funding settlement failed",
						zap.Uint64("market", marketIndex),
						zap.Error(err),
					)
					continue
				}
				lastSettle = e.clock()
			}
		}
	}
}
