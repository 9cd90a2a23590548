package domain

import "time"

// EventType names a change observed on a visitor's storefront state.
type EventType string

const (
	EventCartAdded         EventType = "cart.added"
	EventCartRemoved       EventType = "cart.removed"
	EventCartCleared       EventType = "cart.cleared"
	EventLanguageChanged   EventType = "language.changed"
	EventCheckoutStarted   EventType = "checkout.started"
	EventCheckoutTicked    EventType = "checkout.ticked"
	EventCheckoutConfirmed EventType = "checkout.confirmed"
	EventCheckoutExpired   EventType = "checkout.expired"
	EventCheckoutCancelled EventType = "checkout.cancelled"
)

// IsCartEvent reports whether t describes a cart mutation.
func (t EventType) IsCartEvent() bool {
	switch t {
	case EventCartAdded, EventCartRemoved, EventCartCleared:
		return true
	}
	return false
}

// IsCheckoutEvent reports whether t describes a checkout session change.
func (t EventType) IsCheckoutEvent() bool {
	switch t {
	case EventCheckoutStarted, EventCheckoutTicked, EventCheckoutConfirmed,
		EventCheckoutExpired, EventCheckoutCancelled:
		return true
	}
	return false
}

// Event is delivered to storefront observers after every state change.
// Cart holds the product ids after the change; Session is a copy of the
// affected session for checkout events. Seq increases with every event a
// store emits, so observers can drop events that arrive out of order.
type Event struct {
	Seq        uint64           `json:"seq"`
	Type       EventType        `json:"type"`
	VisitorID  string           `json:"visitor_id"`
	ProductID  string           `json:"product_id,omitempty"`
	Removed    int              `json:"removed,omitempty"`
	Cart       []string         `json:"cart,omitempty"`
	Language   Language         `json:"language"`
	Session    *CheckoutSession `json:"session,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
