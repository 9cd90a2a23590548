// Package event forwards storefront state changes to Kafka and Prometheus.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codenexus/storefront/internal/domain"
	pkgkafka "github.com/codenexus/storefront/pkg/kafka"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront"

// Kafka topics for storefront events.
var (
	TopicCart        = pkgkafka.Topic("storefront", "cart")
	TopicCheckout    = pkgkafka.Topic("storefront", "checkout")
	TopicPreferences = pkgkafka.Topic("storefront", "preferences")
)

const defaultQueueSize = 1024

// Publisher sends an envelope to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// CartData is the payload of cart and preference events.
type CartData struct {
	ProductID string          `json:"product_id,omitempty"`
	Removed   int             `json:"removed,omitempty"`
	Cart      []string        `json:"cart"`
	Language  domain.Language `json:"language"`
}

// CheckoutData is the payload of checkout events.
type CheckoutData struct {
	SessionID  string              `json:"session_id"`
	State      domain.SessionState `json:"state"`
	Target     domain.TargetKind   `json:"target"`
	ProductID  string              `json:"product_id,omitempty"`
	Amount     int64               `json:"amount"`
	Currency   string              `json:"currency"`
	Language   domain.Language     `json:"language"`
	Remaining  int                 `json:"remaining_seconds"`
	ProductIDs []string            `json:"cart,omitempty"`
}

// Forwarder queues storefront events and publishes them from a single
// goroutine, so a slow broker never holds up a visitor's store. Countdown
// ticks are not forwarded. When the queue is full events are dropped.
type Forwarder struct {
	pub    Publisher
	logger *slog.Logger
	queue  chan domain.Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewForwarder creates a forwarder with room for queueSize pending events.
func NewForwarder(pub Publisher, queueSize int, logger *slog.Logger) *Forwarder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Forwarder{
		pub:    pub,
		logger: logger,
		queue:  make(chan domain.Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Listen is a storefront.Listener.
func (f *Forwarder) Listen(ev domain.Event) {
	if ev.Type == domain.EventCheckoutTicked {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}

	select {
	case f.queue <- ev:
	default:
		eventsDropped.Inc()
		f.logger.Warn("event queue full, dropping event",
			slog.String("event_type", string(ev.Type)),
			slog.String("visitor_id", ev.VisitorID),
		)
	}
}

// Run publishes queued events until Close is called and the queue drains.
func (f *Forwarder) Run(ctx context.Context) {
	defer close(f.done)
	for ev := range f.queue {
		if err := f.publish(ctx, ev); err != nil {
			f.logger.ErrorContext(ctx, "failed to forward storefront event",
				slog.String("event_type", string(ev.Type)),
				slog.String("visitor_id", ev.VisitorID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Close stops accepting events and waits for Run to flush the queue or for
// ctx to end.
func (f *Forwarder) Close(ctx context.Context) error {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		close(f.queue)
		f.mu.Unlock()
	})

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Forwarder) publish(ctx context.Context, ev domain.Event) error {
	topic, data := envelope(ev)

	msg, err := pkgkafka.NewEvent(string(ev.Type), ev.VisitorID, SourceStorefront, ev.OccurredAt, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", ev.Type, err)
	}
	msg.WithMetadata("language", string(ev.Language))
	if ev.Session != nil {
		// Every event in a checkout's lifecycle shares the session id.
		msg.WithCorrelationID(ev.Session.ID.String())
	}
	if err := f.pub.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}

func envelope(ev domain.Event) (string, any) {
	if ev.Type.IsCheckoutEvent() && ev.Session != nil {
		s := ev.Session
		data := CheckoutData{
			SessionID:  s.ID.String(),
			State:      s.State,
			Target:     s.Target.Kind,
			Amount:     s.Amount,
			Currency:   s.Language.CurrencyCode(),
			Language:   s.Language,
			Remaining:  s.RemainingSeconds,
			ProductIDs: ev.Cart,
		}
		if s.Target.Product != nil {
			data.ProductID = s.Target.Product.ID
		}
		return TopicCheckout, data
	}

	data := CartData{
		ProductID: ev.ProductID,
		Removed:   ev.Removed,
		Cart:      ev.Cart,
		Language:  ev.Language,
	}
	if ev.Type == domain.EventLanguageChanged {
		return TopicPreferences, data
	}
	return TopicCart, data
}
