package domain

import (
	"regexp"
	"time"
)

var loginPattern = regexp.MustCompile(`^[a-z]{8}$`)

// ValidLogin reports whether s looks like a school login (8 lowercase latin letters).
func ValidLogin(s string) bool {
	return loginPattern.MatchString(s)
}

// UserRecord is a registered community member.
type UserRecord struct {
	UserID           int64 // chat platform user id
	Login            string
	Name             string
	TelegramUsername string
	WatchedLogin     string
	Notified         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Watch returns the watch entry carried by the record.
func (u UserRecord) Watch() WatchEntry {
	return WatchEntry{
		UserID:       u.UserID,
		WatchedLogin: u.WatchedLogin,
		Notified:     u.Notified,
	}
}
