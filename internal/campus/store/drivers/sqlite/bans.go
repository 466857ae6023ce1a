package sqlite

import (
	"context"
	"time"
)

type bansRepo struct {
	q   dbtx
	now func() time.Time
}

func (r *bansRepo) Ban(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO banned_users (user_id, created_at) VALUES (?, ?)`,
		userID, r.now().Unix(),
	)
	return err
}

func (r *bansRepo) Unban(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM banned_users WHERE user_id = ?`, userID)
	return err
}

func (r *bansRepo) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM banned_users WHERE user_id = ?)`, userID,
	).Scan(&banned)
	return banned, err
}

func (r *bansRepo) ListBanned(ctx context.Context) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT user_id FROM banned_users ORDER BY user_id`)
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
