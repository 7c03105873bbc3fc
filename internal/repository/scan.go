package repository

import (
	"github.com/beardedvibes/beardedvibes/internal/models"
)

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanUser reads the canonical user column set:
// id, discord_id, google_id, email, name, avatar_url,
// is_admin, is_banned, is_verified, is_staff, is_owner, created_at, updated_at.
func ScanUser(s Scanner) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(
		&u.ID,
		&u.DiscordID,
		&u.GoogleID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.IsAdmin,
		&u.IsBanned,
		&u.IsVerified,
		&u.IsStaff,
		&u.IsOwner,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ScanPost reads the canonical post column set:
// id, user_id, file_name, file_url, thumbnail_name, thumbnail_url, kind,
// format, title, description, status, edit_token, created_at, updated_at.
func ScanPost(s Scanner) (*models.Post, error) {
	p := &models.Post{}
	err := s.Scan(
		&p.ID,
		&p.UserID,
		&p.FileName,
		&p.FileURL,
		&p.ThumbnailName,
		&p.ThumbnailURL,
		&p.Kind,
		&p.Format,
		&p.Title,
		&p.Description,
		&p.Status,
		&p.EditToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ScanFeedPost reads a feed row: the post columns minus edit_token, then the
// author columns (id, name, avatar_url, is_verified), like_count,
// comment_count and the four viewer flags.
func ScanFeedPost(s Scanner) (*models.FeedPost, error) {
	fp := &models.FeedPost{}
	err := s.Scan(
		&fp.ID,
		&fp.UserID,
		&fp.FileName,
		&fp.FileURL,
		&fp.ThumbnailName,
		&fp.ThumbnailURL,
		&fp.Kind,
		&fp.Format,
		&fp.Title,
		&fp.Description,
		&fp.Status,
		&fp.CreatedAt,
		&fp.UpdatedAt,
		&fp.Author.ID,
		&fp.Author.Name,
		&fp.Author.AvatarURL,
		&fp.Author.IsVerified,
		&fp.LikeCount,
		&fp.CommentCount,
		&fp.ViewerLiked,
		&fp.ViewerWatchlisted,
		&fp.ViewerWatched,
		&fp.ViewerFollows,
	)
	if err != nil {
		return nil, err
	}
	return fp, nil
}

// ScanComment reads a comment row joined with its author:
// id, post_id, user_id, content, created_at, author id/name/avatar_url/is_verified.
func ScanComment(s Scanner) (*models.Comment, error) {
	c := &models.Comment{}
	err := s.Scan(
		&c.ID,
		&c.PostID,
		&c.UserID,
		&c.Content,
		&c.CreatedAt,
		&c.Author.ID,
		&c.Author.Name,
		&c.Author.AvatarURL,
		&c.Author.IsVerified,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ScanAuthor reads id, name, avatar_url, is_verified.
func ScanAuthor(s Scanner) (models.Author, error) {
	var a models.Author
	err := s.Scan(&a.ID, &a.Name, &a.AvatarURL, &a.IsVerified)
	if err != nil {
		return models.Author{}, err
	}
	return a, nil
}
