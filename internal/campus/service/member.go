package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
)

const maxNameLength = 64

type MemberService struct {
	Store store.Store
}

// Register creates or updates a member. Re-registering keeps the watch.
func (s *MemberService) Register(ctx context.Context, userID int64, login, name, username string) (domain.UserRecord, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	name = strings.TrimSpace(name)

	if !domain.ValidLogin(login) {
		return domain.UserRecord{}, ErrInvalidLogin
	}
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return domain.UserRecord{}, ErrInvalidName
	}

	err := s.Store.Users().UpsertUser(ctx, domain.UserRecord{
		UserID:           userID,
		Login:            login,
		Name:             name,
		TelegramUsername: username,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.UserRecord{}, ErrLoginTaken
	}
	if err != nil {
		return domain.UserRecord{}, err
	}

	return s.Store.Users().GetUserByID(ctx, userID)
}

// Get returns ErrNotRegistered for unknown users.
func (s *MemberService) Get(ctx context.Context, userID int64) (domain.UserRecord, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.UserRecord{}, ErrNotRegistered
	}
	return u, err
}

// FindByLogin returns ErrPeerNotFound when nobody registered login.
func (s *MemberService) FindByLogin(ctx context.Context, login string) (domain.UserRecord, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if !domain.ValidLogin(login) {
		return domain.UserRecord{}, ErrInvalidLogin
	}

	u, err := s.Store.Users().GetUserByLogin(ctx, login)
	if errors.Is(err, store.ErrNotFound) {
		return domain.UserRecord{}, ErrPeerNotFound
	}
	return u, err
}

// Watch points userID at login and clears the notified flag. Both the watcher
// and the watched peer must be registered. Watching yourself is allowed.
func (s *MemberService) Watch(ctx context.Context, userID int64, login string) error {
	login = strings.ToLower(strings.TrimSpace(login))
	if !domain.ValidLogin(login) {
		return ErrInvalidLogin
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByID(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotRegistered
			}
			return err
		}
		if _, err := tx.Users().GetUserByLogin(ctx, login); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPeerNotFound
			}
			return err
		}
		return tx.Watches().SetWatch(ctx, userID, login)
	})
}

// Unwatch clears the watch of userID.
func (s *MemberService) Unwatch(ctx context.Context, userID int64) error {
	err := s.Store.Watches().SetWatch(ctx, userID, "")
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotRegistered
	}
	return err
}
