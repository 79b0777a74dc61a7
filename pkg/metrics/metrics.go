package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics exposes the clearing house's operational counters and
// per-market gauges. Every method is safe on a nil receiver so the engine can
// run without metrics wired.
type EngineMetrics struct {
	operations    *prometheus.CounterVec
	deferredOps   *prometheus.GaugeVec
	freeLiquidity *prometheus.GaugeVec
	houseBadDebt  *prometheus.GaugeVec
	oracleErrors  *prometheus.CounterVec
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// Engine returns the process-wide metrics registry.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clearing_operations_total",
				Help: "Count of clearing-house operations by kind and outcome.",
			}, []string{"kind", "outcome"}),
			deferredOps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clearing_deferred_operations",
				Help: "Operations waiting on a fresh oracle price per market.",
			}, []string{"market"}),
			freeLiquidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clearing_free_liquidity",
				Help: "Free liquidity per market, precision scaled.",
			}, []string{"market"}),
			houseBadDebt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clearing_house_bad_debt",
				Help: "Outstanding house bad debt per market, precision scaled.",
			}, []string{"market"}),
			oracleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clearing_oracle_errors_total",
				Help: "Failed oracle fetches per market.",
			}, []string{"market"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.deferredOps,
			engineRegistry.freeLiquidity,
			engineRegistry.houseBadDebt,
			engineRegistry.oracleErrors,
		)
	})
	return engineRegistry
}

// ObserveOperation counts one operation outcome.
func (m *EngineMetrics) ObserveOperation(kind, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(kind, outcome).Inc()
}

// SetDeferredOps records the deferral-queue depth of a market.
func (m *EngineMetrics) SetDeferredOps(market uint64, depth int) {
	if m == nil {
		return
	}
	m.deferredOps.WithLabelValues(marketLabel(market)).Set(float64(depth))
}

// SetFreeLiquidity records a market's free liquidity.
func (m *EngineMetrics) SetFreeLiquidity(market uint64, value float64) {
	if m == nil {
		return
	}
	m.freeLiquidity.WithLabelValues(marketLabel(market)).Set(value)
}

// SetHouseBadDebt records a market's outstanding bad debt.
func (m *EngineMetrics) SetHouseBadDebt(market uint64, value float64) {
	if m == nil {
		return
	}
	m.houseBadDebt.WithLabelValues(marketLabel(market)).Set(value)
}

// IncOracleError counts a failed oracle fetch.
func (m *EngineMetrics) IncOracleError(market uint64) {
	if m == nil {
		return
	}
	m.oracleErrors.WithLabelValues(marketLabel(market)).Inc()
}

func marketLabel(market uint64) string {
	return fmt.Sprintf("%d", market)
}
