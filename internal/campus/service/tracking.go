package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
)

// Resolve picks the watch entries that should be notified for snap: the
// watched login is present and the watcher has not been notified yet today.
// Entry order is preserved.
func Resolve(snap *domain.CampusSnapshot, entries []domain.WatchEntry) []domain.Notification {
	var out []domain.Notification
	for _, e := range entries {
		if !e.Active() || e.Notified {
			continue
		}
		seat, ok := snap.Locate(e.WatchedLogin)
		if !ok {
			continue
		}
		out = append(out, domain.Notification{
			UserID:       e.UserID,
			WatchedLogin: e.WatchedLogin,
			Seat:         seat,
		})
	}
	return out
}

type TrackingService struct {
	Store store.Store
}

// Pending resolves the current watch list against snap.
func (s *TrackingService) Pending(ctx context.Context, snap *domain.CampusSnapshot) ([]domain.Notification, error) {
	entries, err := s.Store.Watches().ListWatchEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list watch entries: %w", err)
	}
	return Resolve(snap, entries), nil
}
