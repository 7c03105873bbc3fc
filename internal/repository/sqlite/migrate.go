package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is append-only and mirrors the Postgres schema with SQLite
// types. ALTER TABLE lacks IF NOT EXISTS here, so version tracking is what
// keeps re-runs safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		discord_id TEXT UNIQUE,
		google_id TEXT UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		is_admin INTEGER NOT NULL DEFAULT 0,
		is_banned INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
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
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts (status, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_posts_user ON posts (user_id);`,

	`CREATE TABLE IF NOT EXISTS likes (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, post_id)
	);
	CREATE INDEX IF NOT EXISTS idx_likes_post ON likes (post_id);
	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id);`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		followee_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (follower_id, followee_id)
	);
	CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows (followee_id);`,

	`CREATE TABLE IF NOT EXISTS watchlist (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, post_id)
	);
	CREATE TABLE IF NOT EXISTS history (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		viewed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, post_id)
	);
	CREATE INDEX IF NOT EXISTS idx_history_user_viewed ON history (user_id, viewed_at DESC);`,

	`ALTER TABLE users ADD COLUMN is_verified INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE users ADD COLUMN is_staff INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE users ADD COLUMN is_owner INTEGER NOT NULL DEFAULT 0;`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
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
