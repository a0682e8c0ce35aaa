// Package metrics exposes order, stock and sync counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

const namespace = "ottobar"

// Registry holds every appliance metric. It is separate from the default
// registry so tests can gather it in isolation.
var Registry = prometheus.NewRegistry()

var (
	ordersCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Concluded orders by outcome and drink category.",
		},
		[]string{"outcome", "category"},
	)
	pouredCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poured_ml_total",
			Help:      "Measured volume dispensed per ingredient slot.",
		},
		[]string{"slot"},
	)
	stockGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_remaining_ml",
			Help:      "Remaining volume per ingredient slot.",
		},
		[]string{"slot", "ingredient"},
	)
	syncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_commands_total",
			Help:      "Sync protocol commands handled, by verb, resource and result.",
		},
		[]string{"verb", "resource", "result"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(ordersCounter)
		Registry.MustRegister(pouredCounter)
		Registry.MustRegister(stockGauge)
		Registry.MustRegister(syncCounter)
	})
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOrder counts a concluded order.
func RecordOrder(outcome domain.Outcome, category domain.Category) {
	ordersCounter.WithLabelValues(outcome.String(), category.String()).Inc()
}

// RecordPoured adds the measured volume of every ingredient of an order.
func RecordPoured(poured [domain.IngredientCount]float64) {
	for i, ml := range poured {
		if ml > 0 {
			pouredCounter.WithLabelValues(slotLabel(i)).Add(ml)
		}
	}
}

// SetStock publishes the current stock levels.
func SetStock(stock domain.Stock) {
	stockGauge.Reset()
	for i, ing := range stock {
		stockGauge.WithLabelValues(slotLabel(i), ing.Name).Set(ing.Remaining)
	}
}

// RecordSyncCommand counts a handled sync command. Unknown resources are
// folded into "other" to bound the label set.
func RecordSyncCommand(verb, resource, result string) {
	switch resource {
	case "Menu", "Stats", "Stock":
	default:
		resource = "other"
	}
	syncCounter.WithLabelValues(verb, resource, result).Inc()
}

func slotLabel(i int) string {
	return string(rune('0' + i))
}
