package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

type followRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) repository.FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followeeID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`,
		followerID, followeeID)
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

	_, err = r.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return false, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?)`,
		followerID, followeeID).Scan(&exists)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return exists, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM follows WHERE followee_id = ?`, userID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *followRepository) listSide(ctx context.Context, query string, userID int64, limit, offset int) ([]models.Author, error) {
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	authors := []models.Author{}
	for rows.Next() {
		a, err := repository.ScanAuthor(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (r *followRepository) ListFollowers(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error) {
	query := `SELECT u.id, u.name, u.avatar_url, u.is_verified FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = ?
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`
	return r.listSide(ctx, query, userID, limit, offset)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error) {
	query := `SELECT u.id, u.name, u.avatar_url, u.is_verified FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = ?
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`
	return r.listSide(ctx, query, userID, limit, offset)
}
