package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
)

const userColumns = `user_id, login, name, telegram_username, watched_login, notified, created_at, updated_at`

type usersRepo struct {
	q   dbtx
	now func() time.Time
}

func (r *usersRepo) GetUserByID(ctx context.Context, userID int64) (domain.UserRecord, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	return scanUser(row)
}

func (r *usersRepo) GetUserByLogin(ctx context.Context, login string) (domain.UserRecord, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE login = ?`, login)
	return scanUser(row)
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.UserRecord) error {
	now := r.now().Unix()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (user_id, login, name, telegram_username, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			login             = excluded.login,
			name              = excluded.name,
			telegram_username = excluded.telegram_username,
			updated_at        = excluded.updated_at`,
		u.UserID, u.Login, u.Name, u.TelegramUsername, now, now,
	)
	return mapUniqueViolation(err)
}

func (r *usersRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (domain.UserRecord, error) {
	var (
		u                    domain.UserRecord
		notified             int
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&u.UserID,
		&u.Login,
		&u.Name,
		&u.TelegramUsername,
		&u.WatchedLogin,
		&notified,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.UserRecord{}, mapNotFound(err)
	}

	u.Notified = notified != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return u, nil
}
