package checkout

import (
	"time"

	"storefront/internal/models"
)

var statusRanks = map[string]int{
	models.OrderStatusCreated:    0,
	models.OrderStatusPaid:       1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	if s == models.OrderStatusCancelled {
		return true
	}
	_, ok := statusRanks[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. The chain is forward-only; cancelled is reachable from any
// pre-delivered state and is terminal, as is delivered.
func CanTransition(from, to string) bool {
	if from == models.OrderStatusCancelled || from == models.OrderStatusDelivered {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRanks[from]
	if !ok {
		return false
	}
	toRank, ok := statusRanks[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// MarkPaid records the payment confirmation and advances the order to at
// least processing so the paid milestone flag and the status enum stay
// consistent. Any live order can be paid regardless of how far fulfilment
// has progressed; orders already shipped keep their status.
func MarkPaid(o *models.Order, result models.PaymentResult, now time.Time) error {
	if o.IsPaid || o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusDelivered {
		return TransitionError{From: o.Status, To: models.OrderStatusPaid}
	}

	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	if statusRanks[o.Status] < statusRanks[models.OrderStatusProcessing] {
		o.Status = models.OrderStatusProcessing
	}
	o.UpdatedAt = now
	return nil
}

// MarkDelivered completes the order. An unpaid order cannot be delivered;
// cash-on-delivery orders are marked paid at settlement first.
func MarkDelivered(o *models.Order, now time.Time) error {
	if !CanTransition(o.Status, models.OrderStatusDelivered) {
		return TransitionError{From: o.Status, To: models.OrderStatusDelivered}
	}
	if !o.IsPaid {
		return TransitionError{From: o.Status, To: models.OrderStatusDelivered}
	}

	o.IsDelivered = true
	o.DeliveredAt = &now
	o.Status = models.OrderStatusDelivered
	o.UpdatedAt = now
	return nil
}

// Cancel aborts a pre-delivered order. Reserved stock is not returned to
// the catalog here; restocking is a manual admin action.
func Cancel(o *models.Order, now time.Time) error {
	if !CanTransition(o.Status, models.OrderStatusCancelled) {
		return TransitionError{From: o.Status, To: models.OrderStatusCancelled}
	}

	o.Status = models.OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}

// AdvanceStatus moves the order forward along the status chain. Delivered
// and cancelled have dedicated entry points that keep the milestone flags
// in sync, so they are routed through those. Paid is not a valid target:
// the paid flag only moves through MarkPaid with a payment result.
func AdvanceStatus(o *models.Order, target string, now time.Time) error {
	switch target {
	case models.OrderStatusDelivered:
		return MarkDelivered(o, now)
	case models.OrderStatusCancelled:
		return Cancel(o, now)
	case models.OrderStatusPaid:
		return TransitionError{From: o.Status, To: target}
	}

	if !CanTransition(o.Status, target) {
		return TransitionError{From: o.Status, To: target}
	}

	o.Status = target
	o.UpdatedAt = now
	return nil
}
