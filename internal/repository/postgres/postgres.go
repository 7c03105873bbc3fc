// Package postgres implements the repository interfaces against PostgreSQL
// using lib/pq. Statements use $n placeholders and RETURNING for new ids.
package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/beardedvibes/beardedvibes/internal/repository"
)

func Open(uri string) (*sql.DB, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
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
