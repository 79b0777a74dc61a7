package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/market"
	"github.com/margined-protocol/clearing-core/pkg/position"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// BalanceRecord is one persisted user balance.
type BalanceRecord struct {
	Owner  types.Principal `json:"owner"`
	Amount sdkmath.Int     `json:"amount"`
}

// ShareRecord is one persisted share balance.
type ShareRecord struct {
	Owner  types.Principal `json:"owner"`
	Market uint64          `json:"market"`
	Amount sdkmath.Int     `json:"amount"`
}

// PositionRecord is one persisted open position.
type PositionRecord struct {
	Owner   types.Principal  `json:"owner"`
	ID      uint64           `json:"id"`
	Market  uint64           `json:"market"`
	Details position.Details `json:"details"`
}

// Snapshot is the whole persisted state layout of the clearing house: admin
// principal, house settings, the append-only market list and the user
// ledgers. Deferral queues are volatile and are not part of it.
type Snapshot struct {
	Admin          types.Principal  `json:"admin"`
	House          HouseSettings    `json:"house"`
	Markets        []market.Market  `json:"markets"`
	Balances       []BalanceRecord  `json:"balances"`
	Shares         []ShareRecord    `json:"shares"`
	Positions      []PositionRecord `json:"positions"`
	NextPositionID uint64           `json:"next_position_id"`
}

// Snapshot captures the engine state for persistence.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Admin:          e.admin,
		House:          e.house,
		Markets:        make([]market.Market, 0, len(e.markets)),
		Balances:       make([]BalanceRecord, 0, len(e.balances)),
		Shares:         make([]ShareRecord, 0, len(e.shares)),
		Positions:      make([]PositionRecord, 0, len(e.positions)),
		NextPositionID: e.nextPositionID,
	}

	for _, mkt := range e.markets {
		snap.Markets = append(snap.Markets, *mkt)
	}
	for owner, amount := range e.balances {
		snap.Balances = append(snap.Balances, BalanceRecord{Owner: owner, Amount: amount})
	}
	for key, amount := range e.shares {
		snap.Shares = append(snap.Shares, ShareRecord{Owner: key.Owner, Market: key.Market, Amount: amount})
	}
	for key, entry := range e.positions {
		snap.Positions = append(snap.Positions, PositionRecord{
			Owner:   key.Owner,
			ID:      key.ID,
			Market:  entry.MarketIndex,
			Details: entry.Details,
		})
	}

	return snap
}

// Restore replaces the engine state with a snapshot. Deferral queues come
// back empty; any operation deferred at snapshot time must be re-submitted.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.admin = snap.Admin
	e.house = snap.House
	e.nextPositionID = snap.NextPositionID

	e.markets = make([]*market.Market, 0, len(snap.Markets))
	e.queues = make(map[uint64]*deferralQueue)
	for i := range snap.Markets {
		restored := snap.Markets[i]
		e.markets = append(e.markets, &restored)
		e.queues[uint64(i)] = newDeferralQueue()
	}

	e.balances = make(map[types.Principal]sdkmath.Int, len(snap.Balances))
	for _, record := range snap.Balances {
		e.balances[record.Owner] = record.Amount
	}

	e.shares = make(map[shareKey]sdkmath.Int, len(snap.Shares))
	for _, record := range snap.Shares {
		e.shares[shareKey{Owner: record.Owner, Market: record.Market}] = record.Amount
	}

	e.positions = make(map[positionKey]positionEntry, len(snap.Positions))
	for _, record := range snap.Positions {
		e.positions[positionKey{Owner: record.Owner, ID: record.ID}] = positionEntry{
			MarketIndex: record.Market,
			Details:     record.Details,
		}
	}
}
