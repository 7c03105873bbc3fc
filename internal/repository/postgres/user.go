package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

// discord_id and google_id are stored as NULL when absent so the partial
// unique constraints hold; they surface as empty strings.
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
	return r.getBy(ctx, `id = $1`, id)
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, bool, error) {
	return r.getBy(ctx, `discord_id = $1`, discordID)
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, bool, error) {
	return r.getBy(ctx, `google_id = $1`, googleID)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (discord_id, google_id, email, name, avatar_url)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		user.DiscordID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.AvatarURL,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users
		SET discord_id = NULLIF($2, ''), google_id = NULLIF($3, ''),
			email = $4, name = $5, avatar_url = $6, updated_at = $7
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.DiscordID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.AvatarURL,
		time.Now().UTC(),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) SetFlags(ctx context.Context, id int64, flags repository.UserFlags) error {
	query := `UPDATE users
		SET is_admin = $2, is_banned = $3, is_verified = $4, is_staff = $5, updated_at = $6
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, flags.Admin, flags.Banned, flags.Verified, flags.Staff, time.Now().UTC())
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
		query += ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	args = append(args, limit, offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

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
		(SELECT COUNT(*) FROM posts WHERE user_id = $1 AND status = 'published'),
		(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
		(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`

	err = r.db.QueryRowContext(ctx, query, id).Scan(&posts, &followers, &following)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, 0, err
	}
	return posts, followers, following, nil
}

func (r *userRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
