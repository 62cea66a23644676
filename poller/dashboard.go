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
	"github.com/printworks-studio/printworks-api/services"
)

// DashboardView is what a dashboard tick fetches: the recent audit feed
// plus per-order unread summaries for the polling admin.
type DashboardView struct {
	RecentAudit   []models.AuditLog
	Notifications services.NotificationSummary
}

// DashboardWatcher polls the audit feed and notification summary for
// one admin. OnChange fires when audit entries newer than the last
// observed one appear.
type DashboardWatcher struct {
	AdminID  uint
	Interval time.Duration
	OnChange func(DashboardView)

	mu          sync.Mutex
	seeded      bool
	lastAuditID uint
	scheduler   gocron.Scheduler
}

// NewDashboardWatcher builds a watcher for the given admin. A zero
// interval falls back to the configured dashboard poll interval.
func NewDashboardWatcher(adminID uint, interval time.Duration, onChange func(DashboardView)) *DashboardWatcher {
	if interval <= 0 {
		interval = config.GetConfig().DashboardPollInterval
	}
	return &DashboardWatcher{
		AdminID:  adminID,
		Interval: interval,
		OnChange: onChange,
	}
}

// Start begins polling on the watcher's interval.
func (w *DashboardWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("dashboard watcher already started for admin %d", w.AdminID)
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
				log.Warn().Err(err).Uint("admin_id", w.AdminID).Msg("Dashboard poll tick failed")
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

// Stop shuts the poll loop down.
func (w *DashboardWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler == nil {
		return nil
	}
	scheduler := w.scheduler
	w.scheduler = nil
	return scheduler.Shutdown()
}

// RunTick fetches the dashboard view and fires OnChange when the audit
// feed gained entries since the last tick. The first tick seeds the
// baseline without firing.
func (w *DashboardWatcher) RunTick(ctx context.Context) (*DashboardView, error) {
	var view DashboardView
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		entries, err := services.RecentAuditEntries(20)
		if err != nil {
			return fmt.Errorf("failed to fetch audit feed: %w", err)
		}
		view.RecentAudit = entries
		return nil
	})
	g.Go(func() error {
		summary, err := services.SummarizeNotifications(w.AdminID)
		if err != nil {
			return fmt.Errorf("failed to summarize notifications: %w", err)
		}
		view.Notifications = summary
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var newestID uint
	if len(view.RecentAudit) > 0 {
		newestID = view.RecentAudit[0].ID
	}

	w.mu.Lock()
	seeded := w.seeded
	previous := w.lastAuditID
	w.seeded = true
	w.lastAuditID = newestID
	w.mu.Unlock()

	if seeded && newestID > previous && w.OnChange != nil {
		w.OnChange(view)
	}
	return &view, nil
}
