package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

const commentColumns = `c.id, c.post_id, c.user_id, c.content, c.created_at,
	u.id, u.name, u.avatar_url, u.is_verified`

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (int64, error) {
	query := `INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3) RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, comment.PostID, comment.UserID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return comment.ID, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments c JOIN users u ON u.id = c.user_id WHERE c.id = $1`

	c, err := repository.ScanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return c, nil
}

func (r *commentRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c, err := repository.ScanComment(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *commentRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
