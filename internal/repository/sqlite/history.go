package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/beardedvibes/beardedvibes/internal/repository"
)

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Record(ctx context.Context, userID, postID int64, viewedAt time.Time) error {
	query := `INSERT INTO history (user_id, post_id, viewed_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, post_id) DO UPDATE SET viewed_at = excluded.viewed_at`

	_, err := r.db.ExecContext(ctx, query, userID, postID, formatTime(viewedAt))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *historyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE viewed_at < ?`, formatTime(cutoff))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
