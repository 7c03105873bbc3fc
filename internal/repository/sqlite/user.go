package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

const userColumns = `id, COALESCE(discord_id, ''), COALESCE(google_id, ''), email, name, avatar_url,
	is_admin, is_banned, is_verified, is_staff, is_owner, created_at, updated_at`

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) getBy(ctx context.Context, where string, arg any) (*models.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := repository.ScanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return u, true, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	return r.getBy(ctx, `id = ?`, id)
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, bool, error) {
	return r.getBy(ctx, `discord_id = ?`, discordID)
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, bool, error) {
	return r.getBy(ctx, `google_id = ?`, googleID)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (discord_id, google_id, email, name, avatar_url)
		VALUES (NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		user.DiscordID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.AvatarURL,
	)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users
		SET discord_id = NULLIF(?, ''), google_id = NULLIF(?, ''),
			email = ?, name = ?, avatar_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		user.DiscordID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) SetFlags(ctx context.Context, id int64, flags repository.UserFlags) error {
	query := `UPDATE users
		SET is_admin = ?, is_banned = ?, is_verified = ?, is_staff = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, flags.Admin, flags.Banned, flags.Verified, flags.Staff, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if search != "" {
		pattern := "%" + search + "%"
		query += ` WHERE name LIKE ? OR email LIKE ?`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := repository.ScanUser(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) ProfileCounts(ctx context.Context, id int64) (posts, followers, following int64, err error) {
	query := `SELECT
		(SELECT COUNT(*) FROM posts WHERE user_id = ? AND status = 'published'),
		(SELECT COUNT(*) FROM follows WHERE followee_id = ?),
		(SELECT COUNT(*) FROM follows WHERE follower_id = ?)`

	err = r.db.QueryRowContext(ctx, query, id, id, id).Scan(&posts, &followers, &following)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, 0, err
	}
	return posts, followers, following, nil
}

func (r *userRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
