// Package storefront holds the per-visitor state container that coordinates
// the cart, the display language and the checkout countdown.
package storefront

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/pkg/clock"
	apperrors "github.com/codenexus/storefront/pkg/errors"
)

const (
	tickInterval        = time.Second
	defaultHistoryLimit = 50
)

// Listener receives every change made to a Store. Listeners run after the
// store lock is released, on the goroutine that caused the change.
type Listener func(domain.Event)

// Options configure a Store.
type Options struct {
	Clock        clock.Clock
	Logger       *slog.Logger
	Payments     *PaymentSwitch
	Language     domain.Language
	HistoryLimit int
}

// CartView is a rendered snapshot of the cart.
type CartView struct {
	Lines    []domain.CartLine `json:"lines"`
	Total    domain.Projection `json:"total"`
	Language domain.Language   `json:"language"`
}

// Store is one visitor's storefront state. It is safe for concurrent use.
type Store struct {
	visitorID string
	clock     clock.Clock
	logger    *slog.Logger
	payments  *PaymentSwitch
	limit     int

	mu        sync.Mutex
	cart      domain.Cart
	lang      domain.Language
	session   *domain.CheckoutSession
	timer     clock.Timer
	purchases []*domain.CheckoutSession
	// sessions replaced by a newer checkout, oldest first
	superseded []*domain.CheckoutSession
	listeners  []subscription
	nextID     int
	seq        uint64
	lastSeen   time.Time
	closed     bool
}

// NewStore creates an empty store for visitorID.
func NewStore(visitorID string, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if !opts.Language.Valid() {
		opts.Language = domain.DefaultLanguage
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}

	return &Store{
		visitorID: visitorID,
		clock:     opts.Clock,
		logger:    opts.Logger.With(slog.String("visitor_id", visitorID)),
		payments:  opts.Payments,
		limit:     opts.HistoryLimit,
		lang:      opts.Language,
		lastSeen:  opts.Clock.Now(),
	}
}

// VisitorID returns the visitor this store belongs to.
func (s *Store) VisitorID() string {
	return s.visitorID
}

// Subscribe registers l for every subsequent change and returns a function
// that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

type subscription struct {
	id int
	fn Listener
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// AddToCart appends p to the cart. Duplicates become separate lines.
func (s *Store) AddToCart(p domain.Product) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed()
	}
	s.cart.Add(p)
	ev := s.eventLocked(domain.EventCartAdded)
	ev.ProductID = p.ID
	s.commit(ev)
	return nil
}

// RemoveFromCart drops every line for productID and returns how many were dropped.
func (s *Store) RemoveFromCart(productID string) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errClosed()
	}
	removed := s.cart.Remove(productID)
	ev := s.eventLocked(domain.EventCartRemoved)
	ev.ProductID = productID
	ev.Removed = removed
	s.commit(ev)
	return removed, nil
}

// ClearCart empties the cart.
func (s *Store) ClearCart() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed()
	}
	s.cart.Clear()
	s.commit(s.eventLocked(domain.EventCartCleared))
	return nil
}

// Cart renders the cart in the active language.
func (s *Store) Cart() (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartViewLocked(s.lang)
}

// CartIn renders the cart in lang without changing the active language.
func (s *Store) CartIn(lang domain.Language) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartViewLocked(lang)
}

// Total projects the cart total in the active language.
func (s *Store) Total() (domain.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total(s.lang)
}

func (s *Store) cartViewLocked(lang domain.Language) (CartView, error) {
	total, err := s.cart.Total(lang)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Lines: s.cart.Snapshot(), Total: total, Language: lang}, nil
}

// ---------------------------------------------------------------------------
// Language
// ---------------------------------------------------------------------------

// Language returns the active display language.
func (s *Store) Language() domain.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// SetLanguage switches the display language. Base prices and the amount of
// an open checkout are unaffected.
func (s *Store) SetLanguage(lang domain.Language) error {
	if !lang.Valid() {
		return apperrors.UnknownLanguage(string(lang))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed()
	}
	if s.lang == lang {
		s.mu.Unlock()
		return nil
	}
	s.lang = lang
	s.commit(s.eventLocked(domain.EventLanguageChanged))
	return nil
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

// StartCheckout opens a session for target priced in the active language.
// An active session is cancelled first.
func (s *Store) StartCheckout(target domain.Target) (*domain.CheckoutSession, error) {
	if !s.payments.Enabled() {
		return nil, apperrors.PaymentsDisabled()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errClosed()
	}
	now := s.clock.Now()

	session, err := domain.NewCheckoutSession(target, &s.cart, s.lang, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var events []domain.Event
	if prev := s.session; prev != nil {
		if !prev.IsTerminal() {
			s.stopTimerLocked()
			_ = prev.Cancel(now)
			events = append(events, s.sessionEventLocked(domain.EventCheckoutCancelled, prev))
		}
		s.supersedeLocked(prev)
	}

	s.session = session
	s.armTimerLocked(session.ID)
	events = append(events, s.sessionEventLocked(domain.EventCheckoutStarted, session))
	out := session.Clone()
	s.commit(events...)

	s.logger.Info("checkout started",
		slog.String("session_id", out.ID.String()),
		slog.String("target", string(out.Target.Kind)),
		slog.Int64("amount", out.Amount),
		slog.String("language", string(out.Language)),
	)
	return out, nil
}

// ConfirmCheckout marks the session paid. Confirming a cart checkout clears the cart.
func (s *Store) ConfirmCheckout(id uuid.UUID) (*domain.CheckoutSession, error) {
	s.mu.Lock()
	session, err := s.currentLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := session.Confirm(s.clock.Now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.stopTimerLocked()
	s.recordPurchaseLocked(session)

	events := []domain.Event{s.sessionEventLocked(domain.EventCheckoutConfirmed, session)}
	if session.Target.Kind == domain.TargetCart {
		s.cart.Clear()
		events = append(events, s.eventLocked(domain.EventCartCleared))
	}
	out := session.Clone()
	s.commit(events...)

	s.logger.Info("checkout confirmed",
		slog.String("session_id", out.ID.String()),
		slog.Int64("amount", out.Amount),
	)
	return out, nil
}

// CancelCheckout abandons the session. The cart is left untouched.
func (s *Store) CancelCheckout(id uuid.UUID) (*domain.CheckoutSession, error) {
	s.mu.Lock()
	session, err := s.currentLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := session.Cancel(s.clock.Now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.stopTimerLocked()
	out := session.Clone()
	s.commit(s.sessionEventLocked(domain.EventCheckoutCancelled, session))

	s.logger.Info("checkout cancelled", slog.String("session_id", out.ID.String()))
	return out, nil
}

// Session returns a copy of the most recent session, or nil if none was started.
func (s *Store) Session() *domain.CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Purchases returns confirmed sessions, most recent first.
func (s *Store) Purchases() []*domain.CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.CheckoutSession, len(s.purchases))
	for i, p := range s.purchases {
		out[len(s.purchases)-1-i] = p.Clone()
	}
	return out
}

// Close stops the countdown timer. A closed store ignores pending ticks and
// rejects further changes with a retryable unavailable error.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

// currentLocked finds session id among the current and superseded sessions.
// Only ids this store never issued are not found; a superseded session is
// returned so the caller's transition reports its terminal state.
func (s *Store) currentLocked(id uuid.UUID) (*domain.CheckoutSession, error) {
	if s.closed {
		return nil, errClosed()
	}
	if s.session != nil && s.session.ID == id {
		return s.session, nil
	}
	for i := len(s.superseded) - 1; i >= 0; i-- {
		if s.superseded[i].ID == id {
			return s.superseded[i], nil
		}
	}
	return nil, apperrors.NotFound("checkout session", id.String())
}

func (s *Store) supersedeLocked(session *domain.CheckoutSession) {
	s.superseded = append(s.superseded, session)
	if over := len(s.superseded) - s.limit; over > 0 {
		s.superseded = append([]*domain.CheckoutSession(nil), s.superseded[over:]...)
	}
}

func errClosed() error {
	return apperrors.Unavailable("visitor state was evicted, retry the request")
}

func (s *Store) recordPurchaseLocked(session *domain.CheckoutSession) {
	s.purchases = append(s.purchases, session.Clone())
	if over := len(s.purchases) - s.limit; over > 0 {
		s.purchases = append([]*domain.CheckoutSession(nil), s.purchases[over:]...)
	}
}

// ---------------------------------------------------------------------------
// Countdown
// ---------------------------------------------------------------------------

func (s *Store) armTimerLocked(id uuid.UUID) {
	s.timer = s.clock.AfterFunc(tickInterval, func() { s.tick(id) })
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// tick advances the countdown of session id. Ticks for a session that is no
// longer current or no longer active are dropped.
func (s *Store) tick(id uuid.UUID) {
	s.mu.Lock()
	if s.closed || s.session == nil || s.session.ID != id || s.session.IsTerminal() {
		s.mu.Unlock()
		return
	}

	session := s.session
	if session.Tick(s.clock.Now()) {
		s.timer = nil
		s.commit(s.sessionEventLocked(domain.EventCheckoutExpired, session))
		s.logger.Info("checkout expired", slog.String("session_id", id.String()))
		return
	}

	s.armTimerLocked(id)
	s.commit(s.sessionEventLocked(domain.EventCheckoutTicked, session))
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func (s *Store) eventLocked(t domain.EventType) domain.Event {
	now := s.clock.Now()
	s.lastSeen = now
	s.seq++
	return domain.Event{
		Seq:        s.seq,
		Type:       t,
		VisitorID:  s.visitorID,
		Cart:       s.cart.ProductIDs(),
		Language:   s.lang,
		OccurredAt: now,
	}
}

func (s *Store) sessionEventLocked(t domain.EventType, session *domain.CheckoutSession) domain.Event {
	ev := s.eventLocked(t)
	ev.Session = session.Clone()
	return ev
}

// commit releases the lock taken by the caller and then delivers events.
func (s *Store) commit(events ...domain.Event) {
	listeners := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.fn
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

// touch marks the store as used without changing it.
func (s *Store) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.clock.Now()
}

// idleSince reports when the store last changed and whether a checkout is running.
func (s *Store) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.session != nil && !s.session.IsTerminal()
	return s.lastSeen, active
}

// restore seeds the cart and language without emitting events.
func (s *Store) restore(products []domain.Product, lang domain.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.cart.Add(p)
	}
	if lang.Valid() {
		s.lang = lang
	}
}
