package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/beardedvibes/beardedvibes/internal/repository"
)

type watchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) repository.WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) Toggle(ctx context.Context, userID, postID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO watchlist (user_id, post_id) VALUES ($1, $2) ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return false, nil
}
