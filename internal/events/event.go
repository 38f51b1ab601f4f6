// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"sales_pricing_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// PromotionApplied is published after a promotion has been attached to an
// order and its line discounts written. The aggregate recalculation itself
// runs in the apply path; subscribers only observe.
type PromotionApplied struct {
	BaseEvent
	OrderID       string `json:"orderId"`
	OrderKind     string `json:"orderKind"`
	PromotionID   string `json:"promotionId"`
	ApplicationID string `json:"applicationId"`
	LinesUpdated  int    `json:"linesUpdated"`
	Reused        bool   `json:"reused"`
}

func (e PromotionApplied) EventName() string { return "promotions.applied" }

// OrderRecalculated is published after the order aggregates were recomputed
// and written back.
type OrderRecalculated struct {
	BaseEvent
	OrderID   string `json:"orderId"`
	OrderKind string `json:"orderKind"`
	Subtotal  string `json:"subtotal"`
	VATAmount string `json:"vatAmount"`
	Total     string `json:"total"`
}

func (e OrderRecalculated) EventName() string { return "orders.recalculated" }
