package sqlite

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

func (r *likeRepository) Toggle(ctx context.Context, userID, postID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO likes (user_id, post_id) VALUES (?, ?)`,
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

	_, err = r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = ? AND post_id = ?`, userID, postID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return false, nil
}

func (r *likeRepository) Count(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
