package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/pquerna/otp/totp"
)

// ModerationService guards admin-only commands and the ban list.
type ModerationService struct {
	Store      store.Store
	AdminID    int64
	TOTPSecret string // optional; when set admin commands need a valid code
}

func (s *ModerationService) IsAdmin(userID int64) bool {
	return s.AdminID != 0 && userID == s.AdminID
}

// Authorize checks that userID may run an admin command.
func (s *ModerationService) Authorize(userID int64, code string) error {
	if !s.IsAdmin(userID) {
		return ErrForbidden
	}
	if s.TOTPSecret == "" {
		return nil
	}
	if !totp.Validate(strings.TrimSpace(code), s.TOTPSecret) {
		return ErrInvalidOTP
	}
	return nil
}

func (s *ModerationService) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return s.Store.Bans().IsBanned(ctx, userID)
}

// Ban bans target, which is either a numeric user id or a registered login.
// The admin cannot ban themselves.
func (s *ModerationService) Ban(ctx context.Context, target string) (int64, error) {
	id, err := s.resolve(ctx, target)
	if err != nil {
		return 0, err
	}
	if id == s.AdminID {
		return 0, ErrForbidden
	}
	return id, s.Store.Bans().Ban(ctx, id)
}

// Unban lifts a ban. Unbanning someone not banned is not an error.
func (s *ModerationService) Unban(ctx context.Context, target string) (int64, error) {
	id, err := s.resolve(ctx, target)
	if err != nil {
		return 0, err
	}
	return id, s.Store.Bans().Unban(ctx, id)
}

func (s *ModerationService) resolve(ctx context.Context, target string) (int64, error) {
	target = strings.TrimSpace(target)
	if id, err := strconv.ParseInt(target, 10, 64); err == nil && id > 0 {
		return id, nil
	}

	members := MemberService{Store: s.Store}
	u, err := members.FindByLogin(ctx, target)
	if err != nil {
		return 0, err
	}
	return u.UserID, nil
}

// IsForbidden reports whether err denies access to an admin command.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrInvalidOTP)
}
