package models

import "time"

type Like struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Author    Author    `json:"author"`
}

type HistoryView struct {
	UserID   int64     `db:"user_id" json:"user_id"`
	PostID   int64     `db:"post_id" json:"post_id"`
	ViewedAt time.Time `db:"viewed_at" json:"viewed_at"`
}

type WatchlistEntry struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
