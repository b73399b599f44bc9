package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OrderMetrics holds every collector of the trade coordinator.
// All Record methods are safe to call on a nil receiver.
type OrderMetrics struct {
	// Creation
	OrdersCreatedTotal     *prometheus.CounterVec
	OrdersCreatedSatsTotal *prometheus.CounterVec

	// Lifecycle
	TransitionsTotal         *prometheus.CounterVec
	RejectedTransitionsTotal *prometheus.CounterVec
	DuplicateDeliveriesTotal *prometheus.CounterVec
	OrdersFinishedTotal      *prometheus.CounterVec
	OrderLifetime            *prometheus.HistogramVec

	// Escrow
	EscrowActionsTotal  *prometheus.CounterVec
	PayoutFailuresTotal prometheus.Counter
	FeesCollectedSats   *prometheus.CounterVec

	// Scheduler
	ExpirationWarningsTotal prometheus.Counter
	OrdersExpiredTotal      prometheus.Counter

	// Disputes
	DisputesOpenedTotal   *prometheus.CounterVec
	DisputesResolvedTotal *prometheus.CounterVec

	// Event bus
	HandlerFailuresTotal *prometheus.CounterVec

	OrderErrorsTotal *prometheus.CounterVec
}

// NewOrderMetrics registers the collectors on reg. Passing nil uses the default registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &OrderMetrics{
		OrdersCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_orders_created_total",
				Help: "Orders created, by type, fiat currency and marketplace scope",
			},
			[]string{"order_type", "currency", "scope"},
		),
		OrdersCreatedSatsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_orders_created_sats_total",
				Help: "Satoshis offered in created orders",
			},
			[]string{"order_type"},
		),

		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_order_transitions_total",
				Help: "Applied order status transitions",
			},
			[]string{"from", "to", "event"},
		),
		RejectedTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_order_transitions_rejected_total",
				Help: "Order events rejected by the state machine",
			},
			[]string{"event", "reason"},
		),
		DuplicateDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_order_duplicate_deliveries_total",
				Help: "Events ignored because they were already applied",
			},
			[]string{"event"},
		),
		OrdersFinishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_orders_finished_total",
				Help: "Orders that reached a terminal status",
			},
			[]string{"status"},
		),
		OrderLifetime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "p2p_order_lifetime_seconds",
				Help:    "Time from creation to a terminal status",
				Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 21600, 43200, 86400, 172800},
			},
			[]string{"status"},
		),

		EscrowActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_escrow_actions_total",
				Help: "Hold invoice actions sent to the payment node",
			},
			[]string{"action", "result"},
		),
		PayoutFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "p2p_payout_failures_total",
				Help: "Failed payments of buyer invoices",
			},
		),
		FeesCollectedSats: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_fees_collected_sats_total",
				Help: "Fees retained from successful trades",
			},
			[]string{"scope"},
		),

		ExpirationWarningsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "p2p_expiration_warnings_total",
				Help: "Orders flagged as about to expire",
			},
		),
		OrdersExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "p2p_orders_expired_total",
				Help: "Orders expired by the scheduler",
			},
		),

		DisputesOpenedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_disputes_opened_total",
				Help: "Disputes opened, by initiating side",
			},
			[]string{"initiator"},
		),
		DisputesResolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_disputes_resolved_total",
				Help: "Disputes resolved, by ruling",
			},
			[]string{"ruling"},
		),

		HandlerFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_eventbus_handler_failures_total",
				Help: "Event bus handlers that returned an error or panicked",
			},
			[]string{"event_type"},
		),

		OrderErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "p2p_order_errors_total",
				Help: "Unexpected errors while processing orders",
			},
			[]string{"error_type"},
		),
	}
}

func scope(communityID string) string {
	if communityID == "" {
		return "global"
	}
	return "community"
}

func (m *OrderMetrics) RecordOrderCreated(orderType, currency, communityID string, amountSats int64) {
	if m == nil {
		return
	}
	m.OrdersCreatedTotal.WithLabelValues(orderType, currency, scope(communityID)).Inc()
	m.OrdersCreatedSatsTotal.WithLabelValues(orderType).Add(float64(amountSats))
}

func (m *OrderMetrics) RecordTransition(from, to, event string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to, event).Inc()
}

func (m *OrderMetrics) RecordRejectedTransition(event, reason string) {
	if m == nil {
		return
	}
	m.RejectedTransitionsTotal.WithLabelValues(event, reason).Inc()
}

func (m *OrderMetrics) RecordDuplicateDelivery(event string) {
	if m == nil {
		return
	}
	m.DuplicateDeliveriesTotal.WithLabelValues(event).Inc()
}

// RecordOrderFinished records a terminal status and how long the order lived.
func (m *OrderMetrics) RecordOrderFinished(status string, lifetimeSeconds float64) {
	if m == nil {
		return
	}
	m.OrdersFinishedTotal.WithLabelValues(status).Inc()
	m.OrderLifetime.WithLabelValues(status).Observe(lifetimeSeconds)
}

// RecordEscrowAction counts create/settle/cancel/pay calls; result is "ok" or an error class.
func (m *OrderMetrics) RecordEscrowAction(action, result string) {
	if m == nil {
		return
	}
	m.EscrowActionsTotal.WithLabelValues(action, result).Inc()
}

func (m *OrderMetrics) RecordPayoutFailure() {
	if m == nil {
		return
	}
	m.PayoutFailuresTotal.Inc()
}

func (m *OrderMetrics) RecordFeeCollected(communityID string, feeSats int64) {
	if m == nil {
		return
	}
	m.FeesCollectedSats.WithLabelValues(scope(communityID)).Add(float64(feeSats))
}

func (m *OrderMetrics) RecordExpirationWarning() {
	if m == nil {
		return
	}
	m.ExpirationWarningsTotal.Inc()
}

func (m *OrderMetrics) RecordOrderExpired() {
	if m == nil {
		return
	}
	m.OrdersExpiredTotal.Inc()
}

func (m *OrderMetrics) RecordDisputeOpened(initiator string) {
	if m == nil {
		return
	}
	m.DisputesOpenedTotal.WithLabelValues(initiator).Inc()
}

func (m *OrderMetrics) RecordDisputeResolved(ruling string) {
	if m == nil {
		return
	}
	m.DisputesResolvedTotal.WithLabelValues(ruling).Inc()
}

func (m *OrderMetrics) RecordHandlerFailure(eventType string) {
	if m == nil {
		return
	}
	m.HandlerFailuresTotal.WithLabelValues(eventType).Inc()
}

func (m *OrderMetrics) RecordError(errorType string) {
	if m == nil {
		return
	}
	m.OrderErrorsTotal.WithLabelValues(errorType).Inc()
}
