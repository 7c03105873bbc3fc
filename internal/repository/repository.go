package repository

import (
	"context"
	"time"

	"github.com/beardedvibes/beardedvibes/internal/models"
)

// StatusAny lifts the published-only filter on post listings. The zero value
// of PostListOptions.Status always means published-only so that no caller can
// leak drafts by forgetting to set it.
const StatusAny = "any"

// PostListOptions drives the composed feed query. Exactly one of the *By
// fields may be set; it becomes the driving join and its timestamp the
// ordering for the personalized lists.
type PostListOptions struct {
	ViewerID    int64
	Status      string
	Search      string
	Format      string
	Kind        string
	AuthorID    int64
	LikedBy     int64
	WatchlistOf int64
	HistoryOf   int64
	FollowedBy  int64
	Sort        string
	Limit       int
	Offset      int
}

type UserFlags struct {
	Admin    bool `json:"is_admin"`
	Banned   bool `json:"is_banned"`
	Verified bool `json:"is_verified"`
	Staff    bool `json:"is_staff"`
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, bool, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, bool, error)
	Create(ctx context.Context, user *models.User) (int64, error)
	Update(ctx context.Context, user *models.User) error
	SetFlags(ctx context.Context, id int64, flags UserFlags) error
	List(ctx context.Context, search string, limit, offset int) ([]*models.User, error)
	ProfileCounts(ctx context.Context, id int64) (posts, followers, following int64, err error)
	Remove(ctx context.Context, id int64) error
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetFeedByID(ctx context.Context, id, viewerID int64) (*models.FeedPost, error)
	List(ctx context.Context, opts *PostListOptions) ([]*models.FeedPost, error)
	Update(ctx context.Context, post *models.Post) error
	Publish(ctx context.Context, id int64) error
	ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	Remove(ctx context.Context, id int64) error
}

type LikeRepository interface {
	Toggle(ctx context.Context, userID, postID int64) (liked bool, err error)
	Count(ctx context.Context, postID int64) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.Comment, error)
	Remove(ctx context.Context, id int64) error
}

type HistoryRepository interface {
	Record(ctx context.Context, userID, postID int64, viewedAt time.Time) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type WatchlistRepository interface {
	Toggle(ctx context.Context, userID, postID int64) (watchlisted bool, err error)
}

type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followeeID int64) (following bool, err error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	CountFollowers(ctx context.Context, userID int64) (int64, error)
	ListFollowers(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error)
	ListFollowing(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error)
}

// Store bundles one full query set. Both backends construct it the same way,
// so everything above the repositories is backend-agnostic.
type Store struct {
	Users     UserRepository
	Posts     PostRepository
	Likes     LikeRepository
	Comments  CommentRepository
	History   HistoryRepository
	Watchlist WatchlistRepository
	Follows   FollowRepository
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Clamp normalizes paging inputs in place and returns the options for chaining.
func (o *PostListOptions) Clamp() *PostListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
