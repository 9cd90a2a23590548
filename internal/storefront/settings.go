package storefront

import "sync/atomic"

// PaymentSwitch is the storefront-wide maintenance toggle for checkout.
// It is shared by every visitor's Store and flipped from the admin API.
type PaymentSwitch struct {
	enabled atomic.Bool
}

// NewPaymentSwitch returns a switch in the given position.
func NewPaymentSwitch(enabled bool) *PaymentSwitch {
	s := &PaymentSwitch{}
	s.enabled.Store(enabled)
	return s
}

// Enabled reports whether new checkouts may start.
func (s *PaymentSwitch) Enabled() bool {
	if s == nil {
		return true
	}
	return s.enabled.Load()
}

// Set flips the switch and returns the previous position.
func (s *PaymentSwitch) Set(enabled bool) bool {
	return s.enabled.Swap(enabled)
}
