// Package metrics exposes Prometheus instrumentation for the marketplace
// engines. Collectors register lazily on first use against the default
// registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	marketplaceOnce sync.Once

	ordersCreated   *prometheus.CounterVec
	ordersSettled   *prometheus.CounterVec
	ordersCancelled *prometheus.CounterVec
	auctionsCreated prometheus.Counter
	auctionBids     prometheus.Counter
	auctionsClosed  *prometheus.CounterVec
)

func ensureMarketplace() {
	marketplaceOnce.Do(func() {
		ordersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniart",
			Subsystem: "trade",
			Name:      "orders_created_total",
			Help:      "Sale orders opened, labelled by listing kind.",
		}, []string{"kind"})
		ordersSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniart",
			Subsystem: "trade",
			Name:      "orders_settled_total",
			Help:      "Sale orders settled, labelled by listing kind.",
		}, []string{"kind"})
		ordersCancelled = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniart",
			Subsystem: "trade",
			Name:      "orders_cancelled_total",
			Help:      "Sale orders cancelled, labelled by listing kind.",
		}, []string{"kind"})
		auctionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uniart",
			Subsystem: "auction",
			Name:      "created_total",
			Help:      "Auctions opened.",
		})
		auctionBids = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uniart",
			Subsystem: "auction",
			Name:      "bids_total",
			Help:      "Bids accepted across all auctions.",
		})
		auctionsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniart",
			Subsystem: "auction",
			Name:      "closed_total",
			Help:      "Auctions closed, labelled by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			ordersCreated,
			ordersSettled,
			ordersCancelled,
			auctionsCreated,
			auctionBids,
			auctionsClosed,
		)
	})
}

// OrderCreated counts a new listing of the given kind ("sale" or "split").
func OrderCreated(kind string) {
	ensureMarketplace()
	ordersCreated.WithLabelValues(kind).Inc()
}

// OrderSettled counts a settled listing of the given kind.
func OrderSettled(kind string) {
	ensureMarketplace()
	ordersSettled.WithLabelValues(kind).Inc()
}

// OrderCancelled counts a withdrawn listing of the given kind.
func OrderCancelled(kind string) {
	ensureMarketplace()
	ordersCancelled.WithLabelValues(kind).Inc()
}

// AuctionCreated counts a newly opened auction.
func AuctionCreated() {
	ensureMarketplace()
	auctionsCreated.Inc()
}

// AuctionBid counts an accepted bid.
func AuctionBid() {
	ensureMarketplace()
	auctionBids.Inc()
}

// AuctionClosed counts a closed auction with its outcome
// ("won", "unsold" or "cancelled").
func AuctionClosed(outcome string) {
	ensureMarketplace()
	auctionsClosed.WithLabelValues(outcome).Inc()
}
