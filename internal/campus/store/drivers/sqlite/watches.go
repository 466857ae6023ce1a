package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
)

type watchesRepo struct {
	q   dbtx
	now func() time.Time
}

func (r *watchesRepo) ListWatchEntries(ctx context.Context) ([]domain.WatchEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT user_id, watched_login, notified
		FROM users
		WHERE watched_login <> ''
		ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.WatchEntry
	for rows.Next() {
		var (
			e        domain.WatchEntry
			notified int
		)
		if err := rows.Scan(&e.UserID, &e.WatchedLogin, &notified); err != nil {
			return nil, err
		}
		e.Notified = notified != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *watchesRepo) SetWatch(ctx context.Context, userID int64, login string) error {
	return expectOneRow(r.q.ExecContext(ctx, `
		UPDATE users
		SET watched_login = ?, notified = 0, updated_at = ?
		WHERE user_id = ?`,
		login, r.now().Unix(), userID,
	))
}

func (r *watchesRepo) SetNotified(ctx context.Context, userID int64, notified bool) error {
	return expectOneRow(r.q.ExecContext(ctx, `
		UPDATE users
		SET notified = ?, updated_at = ?
		WHERE user_id = ?`,
		boolToInt(notified), r.now().Unix(), userID,
	))
}
