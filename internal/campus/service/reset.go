package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/store"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// DefaultResetAt is one minute past midnight.
var DefaultResetAt = ClockTime{Hour: 0, Minute: 1}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// NextReset returns the first occurrence of at strictly after now, in now's
// location.
func NextReset(now time.Time, at ClockTime) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, at.Hour, at.Minute, 0, 0, now.Location())
	}
	return next
}

// SweepResult counts what a sweep touched.
type SweepResult struct {
	Total  int
	Reset  int
	Failed int
}

// NotifiedReset clears every notified flag once a day so watchers can be
// alerted again.
type NotifiedReset struct {
	Store    store.Store
	Logger   *slog.Logger
	At       ClockTime
	Location *time.Location
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewNotifiedReset(st store.Store, logger *slog.Logger, at ClockTime, loc *time.Location) *NotifiedReset {
	if loc == nil {
		loc = time.Local
	}

	return &NotifiedReset{
		Store:    st,
		Logger:   logger,
		At:       at,
		Location: loc,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start schedules the daily sweep. Nothing runs until the first boundary.
func (r *NotifiedReset) Start() {
	go r.run()
	r.Logger.Info("notified reset scheduled",
		"at", r.At.String(),
		"location", r.Location.String(),
		"next", NextReset(r.Now().In(r.Location), r.At),
	)
}

// Stop interrupts the wait and blocks until the loop has exited.
func (r *NotifiedReset) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("notified reset stopped")
}

func (r *NotifiedReset) run() {
	defer close(r.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		now := r.Now().In(r.Location)
		timer := time.NewTimer(NextReset(now, r.At).Sub(now))

		select {
		case <-timer.C:
			res, err := r.Sweep(ctx)
			if err != nil {
				r.Logger.Error("notified reset failed", "error", err)
				continue
			}
			r.Logger.Info("notified reset completed",
				"total", res.Total, "reset", res.Reset, "failed", res.Failed)
		case <-r.stopCh:
			timer.Stop()
			return
		}
	}
}

// Sweep clears the notified flag of every registered user. Users removed
// mid-sweep are ignored; other per-user failures are counted and the sweep
// continues. Running it twice leaves the same state as running it once.
func (r *NotifiedReset) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := r.Store.Users().ListUserIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list users: %w", err)
	}

	res := SweepResult{Total: len(ids)}
	for _, id := range ids {
		err := r.Store.Watches().SetNotified(ctx, id, false)
		switch {
		case err == nil:
			res.Reset++
		case errors.Is(err, store.ErrNotFound):
		default:
			res.Failed++
			r.Logger.Warn("failed to reset notified flag", "user_id", id, "error", err)
		}
	}
	return res, nil
}
