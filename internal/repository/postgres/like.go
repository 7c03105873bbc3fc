package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/beardedvibes/beardedvibes/internal/repository"
)

type likeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) repository.LikeRepository {
	return &likeRepository{db: db}
}

// Toggle inserts the like if missing, deletes it otherwise. ON CONFLICT makes
// the insert race-safe; a concurrent duplicate simply turns into the delete
// branch on the second request.
func (r *likeRepository) Toggle(ctx context.Context, userID, postID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (user_id, post_id) VALUES ($1, $2) ON CONFLICT (user_id, post_id) DO NOTHING`,
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

	_, err = r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return false, nil
}

func (r *likeRepository) Count(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
