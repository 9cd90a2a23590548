package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/repository"
	"github.com/codenexus/storefront/pkg/clock"
	apperrors "github.com/codenexus/storefront/pkg/errors"
)

const snapshotTimeout = 2 * time.Second

// ProductReader resolves product ids against the catalog.
type ProductReader interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// RegistryConfig holds the dependencies shared by every visitor store.
type RegistryConfig struct {
	Catalog         ProductReader
	Snapshots       repository.CartSnapshotRepository
	Payments        *PaymentSwitch
	Clock           clock.Clock
	Logger          *slog.Logger
	DefaultLanguage domain.Language
	HistoryLimit    int
}

// Registry owns one Store per visitor. Stores are created on first use and
// seeded from the visitor's cart snapshot.
type Registry struct {
	cfg    RegistryConfig
	logger *slog.Logger

	mu        sync.Mutex
	stores    map[string]*Store
	observers []Listener
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Payments == nil {
		cfg.Payments = NewPaymentSwitch(true)
	}
	return &Registry{
		cfg:    cfg,
		logger: cfg.Logger,
		stores: make(map[string]*Store),
	}
}

// Payments returns the shared payment switch.
func (r *Registry) Payments() *PaymentSwitch {
	return r.cfg.Payments
}

// Observe attaches l to every store the registry creates from now on.
func (r *Registry) Observe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, l)
}

// Get returns the store for visitorID, creating and restoring it if needed.
func (r *Registry) Get(ctx context.Context, visitorID string) (*Store, error) {
	if visitorID == "" {
		return nil, apperrors.InvalidInput("visitor id is required")
	}

	r.mu.Lock()
	if s, ok := r.stores[visitorID]; ok {
		// Touch under the registry lock so a concurrent Sweep sees the store
		// as fresh before it can evict it.
		s.touch()
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	products, lang, err := r.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have created the store while we were loading.
	if s, ok := r.stores[visitorID]; ok {
		return s, nil
	}

	s := NewStore(visitorID, Options{
		Clock:        r.cfg.Clock,
		Logger:       r.logger,
		Payments:     r.cfg.Payments,
		Language:     r.cfg.DefaultLanguage,
		HistoryLimit: r.cfg.HistoryLimit,
	})
	s.restore(products, lang)
	if r.cfg.Snapshots != nil {
		w := &snapshotWriter{}
		s.Subscribe(func(ev domain.Event) { r.persist(w, ev) })
	}
	for _, l := range r.observers {
		s.Subscribe(l)
	}
	r.stores[visitorID] = s
	return s, nil
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep closes and forgets stores that have been idle for longer than idle
// and have no checkout running. It returns how many were evicted.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.cfg.Clock.Now().Add(-idle)

	r.mu.Lock()
	var evicted []*Store
	for id, s := range r.stores {
		lastSeen, active := s.idleSince()
		if active || lastSeen.After(cutoff) {
			continue
		}
		delete(r.stores, id)
		evicted = append(evicted, s)
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	return len(evicted)
}

// Close stops every store's countdown.
func (r *Registry) Close() {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.stores = make(map[string]*Store)
	r.mu.Unlock()

	for _, s := range stores {
		s.Close()
	}
}

func (r *Registry) load(ctx context.Context, visitorID string) ([]domain.Product, domain.Language, error) {
	if r.cfg.Snapshots == nil {
		return nil, "", nil
	}

	snap, err := r.cfg.Snapshots.Get(ctx, visitorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("load cart snapshot: %w", err)
	}

	products := make([]domain.Product, 0, len(snap.ProductIDs))
	for _, id := range snap.ProductIDs {
		p, err := r.cfg.Catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				r.logger.WarnContext(ctx, "dropping unknown product from restored cart",
					slog.String("visitor_id", visitorID),
					slog.String("product_id", id),
				)
				continue
			}
			return nil, "", fmt.Errorf("resolve product %s: %w", id, err)
		}
		products = append(products, p)
	}
	return products, snap.Language, nil
}

// snapshotWriter serializes one visitor's snapshot saves. Listeners of
// concurrent mutations may run in any order, so saves for events older than
// the last one written are dropped.
type snapshotWriter struct {
	mu   sync.Mutex
	last uint64
}

// persist writes the cart snapshot after cart and language changes.
func (r *Registry) persist(w *snapshotWriter, ev domain.Event) {
	if !ev.Type.IsCartEvent() && ev.Type != domain.EventLanguageChanged {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if ev.Seq <= w.last {
		r.logger.Debug("skipping stale cart snapshot",
			slog.String("visitor_id", ev.VisitorID),
			slog.Uint64("seq", ev.Seq),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	snap := &repository.CartSnapshot{
		VisitorID:  ev.VisitorID,
		ProductIDs: ev.Cart,
		Language:   ev.Language,
		UpdatedAt:  ev.OccurredAt,
	}
	if err := r.cfg.Snapshots.Save(ctx, snap); err != nil {
		r.logger.Error("failed to save cart snapshot",
			slog.String("visitor_id", ev.VisitorID),
			slog.String("event", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	w.last = ev.Seq
}
