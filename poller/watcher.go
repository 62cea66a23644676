// Package poller implements the polling side of order synchronization.
// Clients rendering an order keep an OrderWatcher running for as long as
// the view is open; the watcher refetches the order on a fixed interval
// and fires a callback only when the fields worth re-rendering for have
// actually changed.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
)

// OrderView bundles everything a tick fetches for one order.
type OrderView struct {
	Order          models.Order
	Notes          []models.OrderNote
	Communications []models.Communication
	Proofs         []models.Proof
}

type snapshot struct {
	status       models.OrderStatus
	assignedToID *uint
}

func snapshotOf(o *models.Order) snapshot {
	s := snapshot{status: o.Status}
	if o.AssignedToID != nil {
		id := *o.AssignedToID
		s.assignedToID = &id
	}
	return s
}

func (s snapshot) equal(other snapshot) bool {
	if s.status != other.status {
		return false
	}
	if (s.assignedToID == nil) != (other.assignedToID == nil) {
		return false
	}
	if s.assignedToID != nil && *s.assignedToID != *other.assignedToID {
		return false
	}
	return true
}

// OrderWatcher polls a single order and fires OnChange when its status
// or assignment differs from the last observed state. The owner calls
// Observe after rendering so user-driven refreshes also update the
// comparison baseline.
type OrderWatcher struct {
	OrderID  uint
	Interval time.Duration
	OnChange func(OrderView)

	mu        sync.Mutex
	last      *snapshot
	scheduler gocron.Scheduler
}

// NewOrderWatcher builds a watcher for the given order. A zero interval
// falls back to the configured order poll interval.
func NewOrderWatcher(orderID uint, interval time.Duration, onChange func(OrderView)) *OrderWatcher {
	if interval <= 0 {
		interval = config.GetConfig().OrderPollInterval
	}
	return &OrderWatcher{
		OrderID:  orderID,
		Interval: interval,
		OnChange: onChange,
	}
}

// Start begins polling on the watcher's interval. It returns an error
// only if the scheduler cannot be created; individual tick failures are
// logged and the next tick still runs.
func (w *OrderWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("watcher already started for order %d", w.OrderID)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), w.Interval)
			defer cancel()
			if _, err := w.RunTick(ctx); err != nil {
				log.Warn().Err(err).Uint("order_id", w.OrderID).Msg("Order poll tick failed")
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	scheduler.Start()
	w.scheduler = scheduler
	return nil
}

// Stop shuts the poll loop down. Safe to call on a watcher that was
// never started.
func (w *OrderWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler == nil {
		return nil
	}
	scheduler := w.scheduler
	w.scheduler = nil
	return scheduler.Shutdown()
}

// RunTick fetches the order view and fires OnChange if status or
// assignment moved since the last observed state. The first tick seeds
// the baseline without firing. It returns the fetched view so callers
// driving ticks directly can inspect it.
func (w *OrderWatcher) RunTick(ctx context.Context) (*OrderView, error) {
	view, err := w.fetch(ctx)
	if err != nil {
		return nil, err
	}

	current := snapshotOf(&view.Order)

	w.mu.Lock()
	previous := w.last
	w.last = &current
	w.mu.Unlock()

	if previous != nil && !previous.equal(current) && w.OnChange != nil {
		w.OnChange(*view)
	}
	return view, nil
}

// Observe resets the comparison baseline to the given order state.
// Owners call this after rendering data they fetched themselves so the
// next tick does not re-report a change the user already saw.
func (w *OrderWatcher) Observe(order *models.Order) {
	current := snapshotOf(order)
	w.mu.Lock()
	w.last = &current
	w.mu.Unlock()
}

func (w *OrderWatcher) fetch(ctx context.Context) (*OrderView, error) {
	db := config.GetDB().WithContext(ctx)

	var view OrderView
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := db.Preload("Items").First(&view.Order, w.OrderID).Error; err != nil {
			return fmt.Errorf("failed to fetch order %d: %w", w.OrderID, err)
		}
		return nil
	})
	g.Go(func() error {
		return db.Where("order_id = ?", w.OrderID).
			Order("created_at DESC").
			Find(&view.Notes).Error
	})
	g.Go(func() error {
		return db.Where("order_id = ?", w.OrderID).
			Order("created_at DESC").
			Find(&view.Communications).Error
	})
	g.Go(func() error {
		return db.Preload("Annotations").
			Where("order_id = ?", w.OrderID).
			Order("version DESC").
			Find(&view.Proofs).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &view, nil
}
