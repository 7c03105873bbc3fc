package models

import "time"

type Post struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	FileURL       string    `db:"file_url" json:"file_url"`
	ThumbnailName string    `db:"thumbnail_name" json:"-"`
	ThumbnailURL  string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Kind          string    `db:"kind" json:"kind"`
	Format        string    `db:"format" json:"format"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Status        string    `db:"status" json:"status"`
	EditToken     string    `db:"edit_token" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FeedPost is a post row enriched with its author, derived counts and the
// viewer-specific relation flags the feed queries resolve in one pass.
type FeedPost struct {
	Post
	Author            Author `json:"author"`
	LikeCount         int64  `json:"likes"`
	CommentCount      int64  `json:"comments"`
	ViewerLiked       bool   `json:"viewer_liked"`
	ViewerWatchlisted bool   `json:"viewer_watchlisted"`
	ViewerWatched     bool   `json:"viewer_watched"`
	ViewerFollows     bool   `json:"viewer_follows"`
}

const (
	KindImage = "image"
	KindVideo = "video"

	FormatLong  = "long"
	FormatShort = "short"
	FormatPhoto = "photo"

	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

const (
	SortTrending = "trending"
	SortLatest   = "latest"
)
