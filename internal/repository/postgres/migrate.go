package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is append-only. Each entry runs once inside its own transaction
// and is recorded in schema_migrations, so calling Migrate on an up-to-date
// database is a no-op.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		discord_id TEXT UNIQUE,
		google_id TEXT UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_banned BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		file_name TEXT NOT NULL,
		file_url TEXT NOT NULL,
		thumbnail_name TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		format TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		edit_token TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts (status, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_posts_user ON posts (user_id);`,

	`CREATE TABLE IF NOT EXISTS likes (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, post_id)
	);
	CREATE INDEX IF NOT EXISTS idx_likes_post ON likes (post_id);
	CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id);`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		followee_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (follower_id, followee_id)
	);
	CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows (followee_id);`,

	`CREATE TABLE IF NOT EXISTS watchlist (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, post_id)
	);
	CREATE TABLE IF NOT EXISTS history (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		viewed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, post_id)
	);
	CREATE INDEX IF NOT EXISTS idx_history_user_viewed ON history (user_id, viewed_at DESC);`,

	`ALTER TABLE users ADD COLUMN IF NOT EXISTS is_verified BOOLEAN NOT NULL DEFAULT FALSE;
	ALTER TABLE users ADD COLUMN IF NOT EXISTS is_staff BOOLEAN NOT NULL DEFAULT FALSE;
	ALTER TABLE users ADD COLUMN IF NOT EXISTS is_owner BOOLEAN NOT NULL DEFAULT FALSE;`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			slog.Info(err.Error())
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			tx.Rollback()
			slog.Info(err.Error())
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		slog.Info("applied migration", "version", version)
	}
	return nil
}
