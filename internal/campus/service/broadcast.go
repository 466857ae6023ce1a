package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"golang.org/x/time/rate"
)

const (
	// DefaultBroadcastInterval spaces deliveries well under the Bot API's
	// per-bot flood limit.
	DefaultBroadcastInterval = 100 * time.Millisecond
	DefaultBroadcastTimeout  = 15 * time.Second
)

// Copier re-sends an existing chat message. *telegram.Client implements it.
type Copier interface {
	CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) error
}

type BroadcastResult struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

// BroadcastService copies one admin message to every member.
type BroadcastService struct {
	Store       store.Store
	Copier      Copier
	Logger      *slog.Logger
	Limiter     *rate.Limiter // nil sends without pacing
	SendTimeout time.Duration
}

func NewBroadcastService(st store.Store, copier Copier, logger *slog.Logger) *BroadcastService {
	return &BroadcastService{
		Store:       st,
		Copier:      copier,
		Logger:      logger,
		Limiter:     rate.NewLimiter(rate.Every(DefaultBroadcastInterval), 1),
		SendTimeout: DefaultBroadcastTimeout,
	}
}

// Send copies message messageID of chat fromChatID to every registered,
// unbanned member. A recipient that cannot be reached is counted and
// skipped. The error is non-nil only when recipients cannot be listed or
// ctx ends mid-way; the result then covers what was done so far.
func (s *BroadcastService) Send(ctx context.Context, fromChatID, messageID int64) (BroadcastResult, error) {
	recipients, err := s.recipients(ctx)
	if err != nil {
		return BroadcastResult{}, err
	}

	res := BroadcastResult{Recipients: len(recipients)}
	for _, userID := range recipients {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return res, fmt.Errorf("broadcast interrupted: %w", err)
			}
		}

		if err := s.copyTo(ctx, userID, fromChatID, messageID); err != nil {
			res.Failed++
			s.Logger.Warn("broadcast delivery failed", "user_id", userID, "error", err)
			continue
		}
		res.Sent++
	}

	s.Logger.Info("broadcast finished",
		"recipients", res.Recipients,
		"sent", res.Sent,
		"failed", res.Failed,
	)
	return res, nil
}

func (s *BroadcastService) copyTo(ctx context.Context, userID, fromChatID, messageID int64) error {
	if s.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SendTimeout)
		defer cancel()
	}
	return s.Copier.CopyMessage(ctx, userID, fromChatID, messageID)
}

func (s *BroadcastService) recipients(ctx context.Context) ([]int64, error) {
	ids, err := s.Store.Users().ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	banned, err := s.Store.Bans().ListBanned(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list banned users: %w", err)
	}

	skip := make(map[int64]struct{}, len(banned))
	for _, id := range banned {
		skip[id] = struct{}{}
	}

	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}
