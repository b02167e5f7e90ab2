package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the marketplace.
type Metrics struct {
	ItemsMinted         prometheus.Counter
	ListingsCreated     prometheus.Counter
	ListingsRemoved     prometheus.Counter
	SalesSettled        prometheus.Counter
	ProceedsWithdrawals prometheus.Counter
	ReentrancyRejected  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ItemsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_items_minted_total",
			Help: "Total number of items minted",
		}),
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_listings_created_total",
			Help: "Total number of sale listings created",
		}),
		ListingsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_listings_removed_total",
			Help: "Total number of sale listings retracted",
		}),
		SalesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_sales_settled_total",
			Help: "Total number of purchases settled",
		}),
		ProceedsWithdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_proceeds_withdrawals_total",
			Help: "Total number of successful proceeds withdrawals",
		}),
		ReentrancyRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "curio_reentrancy_rejected_total",
			Help: "Total number of calls rejected by the reentrancy guard",
		}),
	}
}
