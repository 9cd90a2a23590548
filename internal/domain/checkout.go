package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/codenexus/storefront/pkg/errors"
)

// CheckoutWindowSeconds is how long a visitor has to pay before a session expires.
const CheckoutWindowSeconds = 900

// WalletAddress is the settlement address displayed on every payment screen.
const WalletAddress = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

// SessionState is the lifecycle state of a checkout session.
type SessionState string

const (
	StateActive    SessionState = "active"
	StateConfirmed SessionState = "confirmed"
	StateExpired   SessionState = "expired"
	StateCancelled SessionState = "cancelled"
)

// IsTerminal returns true for every state except active.
func (s SessionState) IsTerminal() bool {
	return s != StateActive
}

// TargetKind says what a checkout session is paying for.
type TargetKind string

const (
	TargetCart    TargetKind = "cart"
	TargetProduct TargetKind = "product"
)

// Target identifies the subject of a checkout: the whole cart or one product.
type Target struct {
	Kind    TargetKind `json:"kind"`
	Product *Product   `json:"product,omitempty"`
}

// CartTarget returns a target covering the visitor's cart.
func CartTarget() Target {
	return Target{Kind: TargetCart}
}

// ProductTarget returns a buy-now target for p.
func ProductTarget(p Product) Target {
	return Target{Kind: TargetProduct, Product: &p}
}

// CheckoutSession is a simulated payment with a fixed countdown. Amount is
// frozen at creation and never recomputed.
type CheckoutSession struct {
	ID               uuid.UUID    `json:"id"`
	Target           Target       `json:"target"`
	Amount           int64        `json:"amount"`
	Symbol           string       `json:"symbol"`
	Language         Language     `json:"language"`
	RemainingSeconds int          `json:"remaining_seconds"`
	State            SessionState `json:"state"`
	WalletAddress    string       `json:"wallet_address"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NewCheckoutSession prices target in lang and opens an active session.
// cart is consulted only for cart targets.
func NewCheckoutSession(target Target, cart *Cart, lang Language, now time.Time) (*CheckoutSession, error) {
	var (
		proj Projection
		err  error
	)

	switch target.Kind {
	case TargetCart:
		if cart == nil || cart.IsEmpty() {
			return nil, apperrors.InvalidTarget("cart is empty")
		}
		proj, err = cart.Total(lang)
	case TargetProduct:
		if target.Product == nil || target.Product.ID == "" {
			return nil, apperrors.InvalidTarget("product is required")
		}
		proj, err = Project(target.Product.Price, lang)
	default:
		return nil, apperrors.InvalidTarget(fmt.Sprintf("unknown target kind %q", target.Kind))
	}
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{
		ID:               uuid.New(),
		Target:           target,
		Amount:           proj.Amount,
		Symbol:           proj.Symbol,
		Language:         lang,
		RemainingSeconds: CheckoutWindowSeconds,
		State:            StateActive,
		WalletAddress:    WalletAddress,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Tick consumes one second of the countdown and reports whether the session
// expired on this tick. Ticks on a terminal session are ignored.
func (s *CheckoutSession) Tick(now time.Time) bool {
	if s.State.IsTerminal() {
		return false
	}
	if s.RemainingSeconds > 0 {
		s.RemainingSeconds--
	}
	s.UpdatedAt = now
	if s.RemainingSeconds == 0 {
		s.State = StateExpired
		return true
	}
	return false
}

// Confirm records the visitor's payment assertion.
func (s *CheckoutSession) Confirm(now time.Time) error {
	return s.transition(StateConfirmed, "confirm", now)
}

// Cancel abandons the session.
func (s *CheckoutSession) Cancel(now time.Time) error {
	return s.transition(StateCancelled, "cancel", now)
}

func (s *CheckoutSession) transition(to SessionState, action string, now time.Time) error {
	if s.State != StateActive {
		return apperrors.InvalidStateTransition(string(s.State), action)
	}
	s.State = to
	s.UpdatedAt = now
	return nil
}

// IsTerminal returns true if the session is in a final state.
func (s *CheckoutSession) IsTerminal() bool {
	return s.State.IsTerminal()
}

// Remaining formats the countdown as MM:SS.
func (s *CheckoutSession) Remaining() string {
	return fmt.Sprintf("%02d:%02d", s.RemainingSeconds/60, s.RemainingSeconds%60)
}

// Clone returns a copy that does not share the target product.
func (s *CheckoutSession) Clone() *CheckoutSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.Target.Product != nil {
		p := *s.Target.Product
		c.Target.Product = &p
	}
	return &c
}
