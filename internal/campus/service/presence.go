package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/aussiebroadwan/campusbot/pkg/idx"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"
)

const DefaultPresenceInterval = 5 * time.Minute

// Notifier delivers a text message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// TickResult summarises one presence cycle.
type TickResult struct {
	CycleID    string
	SnapshotID string
	Present    int
	Pending    int
	Sent       int
	Skipped    int
	Failed     int
}

// PresenceWatcher periodically forces a campus refresh and alerts watchers
// whose peer has shown up. Each watcher is alerted at most once until the
// notified flag is cleared again.
type PresenceWatcher struct {
	Snapshots SnapshotSource
	Tracking  *TrackingService
	Store     store.Store
	Notifier  Notifier
	Logger    *slog.Logger
	Interval  time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPresenceWatcher creates a watcher. If interval is 0 or negative,
// defaults to 5 minutes.
func NewPresenceWatcher(
	snapshots SnapshotSource,
	st store.Store,
	notifier Notifier,
	logger *slog.Logger,
	interval time.Duration,
) *PresenceWatcher {
	if interval <= 0 {
		interval = DefaultPresenceInterval
	}

	return &PresenceWatcher{
		Snapshots: snapshots,
		Tracking:  &TrackingService{Store: st},
		Store:     st,
		Notifier:  notifier,
		Logger:    logger,
		Interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the first cycle immediately and then one per Interval.
func (w *PresenceWatcher) Start() {
	go w.run()
	w.Logger.Info("presence watcher started", "interval", w.Interval)
}

// Stop cancels any in-flight cycle and waits for the loop to exit.
func (w *PresenceWatcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.Logger.Info("presence watcher stopped")
}

func (w *PresenceWatcher) run() {
	defer close(w.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-w.stopCh:
			return
		}
	}
}

func (w *PresenceWatcher) tick(ctx context.Context) {
	res, err := w.Tick(ctx)
	if err != nil {
		w.Logger.Error("presence cycle failed", "cycle_id", res.CycleID, "error", err)
		return
	}
	w.Logger.Info("presence cycle completed",
		"cycle_id", res.CycleID,
		"snapshot_id", res.SnapshotID,
		"present", res.Present,
		"pending", res.Pending,
		"sent", res.Sent,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
}

// Tick runs one presence cycle. A failing delivery never aborts the cycle;
// a panic is turned into an error so the loop survives it.
func (w *PresenceWatcher) Tick(ctx context.Context) (res TickResult, err error) {
	res.CycleID = idx.New().String()
	ctx, _ = slogx.Scoped(ctx, w.Logger, "cycle_id", res.CycleID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("presence cycle panicked: %v", r)
		}
	}()

	snap := w.Snapshots.Get(ctx, true)
	res.SnapshotID = snap.ID
	res.Present = snap.Count()

	pending, err := w.Tracking.Pending(ctx, snap)
	if err != nil {
		return res, err
	}
	res.Pending = len(pending)

	for _, n := range pending {
		if ctx.Err() != nil {
			break
		}
		switch w.deliver(ctx, n) {
		case deliverySent:
			res.Sent++
		case deliverySkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}

	return res, nil
}

type delivery int

const (
	deliverySent delivery = iota
	deliverySkipped
	deliveryFailed
)

// deliver re-reads the watcher before sending so a watch changed or cleared
// since the cycle started is not alerted.
func (w *PresenceWatcher) deliver(ctx context.Context, n domain.Notification) delivery {
	logger := slogx.FromContext(ctx).With("user_id", n.UserID, "watched_login", n.WatchedLogin)

	user, err := w.Store.Users().GetUserByID(ctx, n.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return deliverySkipped
	}
	if err != nil {
		logger.Error("failed to re-read watcher", "error", err)
		return deliveryFailed
	}
	if user.WatchedLogin != n.WatchedLogin || user.Notified {
		return deliverySkipped
	}

	if err := w.Notifier.Notify(ctx, n.UserID, PresenceAlert(n)); err != nil {
		logger.Warn("failed to deliver presence alert", "error", err)
		return deliveryFailed
	}

	if err := w.Store.Watches().SetNotified(ctx, n.UserID, true); err != nil {
		logger.Error("presence alert sent but notified flag not stored", "error", err)
	}
	logger.Debug("presence alert delivered", "seat", n.Seat.Seat())
	return deliverySent
}

// PresenceAlert renders the alert text (HTML parse mode).
func PresenceAlert(n domain.Notification) string {
	return fmt.Sprintf("🚨 Your watched peer <b>%s</b> is on campus now! (%s)",
		html.EscapeString(n.WatchedLogin), html.EscapeString(n.Seat.Seat()))
}
