// Package sqlite implements the repository interfaces against SQLite using
// the pure-Go glebarez driver. Statements use ? placeholders; timestamps are
// written with CURRENT_TIMESTAMP so every stored value shares one format and
// range comparisons stay correct.
package sqlite

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/beardedvibes/beardedvibes/internal/repository"
)

// timeLayout matches CURRENT_TIMESTAMP output (UTC, second precision).
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func Open(uri string) (*sql.DB, error) {
	dsn := uri
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection sidesteps SQLITE_BUSY under write contention and
	// keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Users:     NewUserRepository(db),
		Posts:     NewPostRepository(db),
		Likes:     NewLikeRepository(db),
		Comments:  NewCommentRepository(db),
		History:   NewHistoryRepository(db),
		Watchlist: NewWatchlistRepository(db),
		Follows:   NewFollowRepository(db),
	}
}
