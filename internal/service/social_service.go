package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

const maxCommentLen = 2000

type SocialService interface {
	ToggleLike(ctx context.Context, userID, postID int64) (liked bool, count int64, err error)
	ToggleWatchlist(ctx context.Context, userID, postID int64) (bool, error)
	RecordView(ctx context.Context, userID, postID int64) error
	AddComment(ctx context.Context, userID, postID int64, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID, viewerID int64) ([]*models.Comment, error)
	RemoveComment(ctx context.Context, userID, commentID int64, isAdmin bool) error
	ToggleFollow(ctx context.Context, followerID, followeeID int64) (following bool, followers int64, err error)
}

type socialService struct {
	pr repository.PostRepository
	lr repository.LikeRepository
	cr repository.CommentRepository
	hr repository.HistoryRepository
	wr repository.WatchlistRepository
	fr repository.FollowRepository
	ur repository.UserRepository
}

func NewSocialService(
	pr repository.PostRepository,
	lr repository.LikeRepository,
	cr repository.CommentRepository,
	hr repository.HistoryRepository,
	wr repository.WatchlistRepository,
	fr repository.FollowRepository,
	ur repository.UserRepository) SocialService {
	return &socialService{
		pr: pr,
		lr: lr,
		cr: cr,
		hr: hr,
		wr: wr,
		fr: fr,
		ur: ur,
	}
}

// requireVisible loads the post and rejects interactions with drafts unless
// the caller owns them.
func (s *socialService) requireVisible(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if postID == 0 {
		return nil, fmt.Errorf("%w: post id is not valid", ErrInvalidInput)
	}
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}
	if post.Status != models.PostStatusPublished && post.UserID != userID {
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}
	return post, nil
}

func (s *socialService) ToggleLike(ctx context.Context, userID, postID int64) (bool, int64, error) {
	if _, err := s.requireVisible(ctx, postID, userID); err != nil {
		return false, 0, err
	}

	liked, err := s.lr.Toggle(ctx, userID, postID)
	if err != nil {
		return false, 0, fmt.Errorf("error toggling like: %w", err)
	}

	count, err := s.lr.Count(ctx, postID)
	if err != nil {
		return liked, 0, fmt.Errorf("error counting likes: %w", err)
	}
	return liked, count, nil
}

func (s *socialService) ToggleWatchlist(ctx context.Context, userID, postID int64) (bool, error) {
	if _, err := s.requireVisible(ctx, postID, userID); err != nil {
		return false, err
	}

	watchlisted, err := s.wr.Toggle(ctx, userID, postID)
	if err != nil {
		return false, fmt.Errorf("error toggling watchlist: %w", err)
	}
	return watchlisted, nil
}

func (s *socialService) RecordView(ctx context.Context, userID, postID int64) error {
	if _, err := s.requireVisible(ctx, postID, userID); err != nil {
		return err
	}

	if err := s.hr.Record(ctx, userID, postID, time.Now().UTC()); err != nil {
		return fmt.Errorf("error recording view: %w", err)
	}
	return nil
}

func (s *socialService) AddComment(ctx context.Context, userID, postID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, fmt.Errorf("%w: comment too long", ErrInvalidInput)
	}

	if _, err := s.requireVisible(ctx, postID, userID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if _, err := s.cr.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("error creating comment: %w", err)
	}

	author, exists, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		comment.Author = author.Public()
	}
	return comment, nil
}

func (s *socialService) ListComments(ctx context.Context, postID, viewerID int64) ([]*models.Comment, error) {
	if _, err := s.requireVisible(ctx, postID, viewerID); err != nil {
		return nil, err
	}

	comments, err := s.cr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	return comments, nil
}

func (s *socialService) RemoveComment(ctx context.Context, userID, commentID int64, isAdmin bool) error {
	if commentID == 0 {
		return fmt.Errorf("%w: comment id is not valid", ErrInvalidInput)
	}

	comment, err := s.cr.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("error getting comment: %w", err)
	}
	if comment == nil {
		return fmt.Errorf("%w: comment", ErrNotFound)
	}

	// The comment author, the owner of the commented post and admins may
	// delete a comment.
	allowed := isAdmin || comment.UserID == userID
	if !allowed {
		post, err := s.pr.GetByID(ctx, comment.PostID)
		if err != nil {
			return fmt.Errorf("error getting post info: %w", err)
		}
		allowed = post != nil && post.UserID == userID
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.cr.Remove(ctx, commentID); err != nil {
		return fmt.Errorf("error removing comment: %w", err)
	}
	return nil
}

// ToggleFollow follows or unfollows the user and reports the new state with
// the followee's refreshed follower count.
func (s *socialService) ToggleFollow(ctx context.Context, followerID, followeeID int64) (bool, int64, error) {
	if followeeID == 0 {
		return false, 0, fmt.Errorf("%w: user id is not valid", ErrInvalidInput)
	}
	if followerID == followeeID {
		return false, 0, fmt.Errorf("%w: cannot follow yourself", ErrInvalidInput)
	}

	_, exists, err := s.ur.GetByID(ctx, followeeID)
	if err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, fmt.Errorf("%w: user", ErrNotFound)
	}

	following, err := s.fr.Toggle(ctx, followerID, followeeID)
	if err != nil {
		return false, 0, fmt.Errorf("error toggling follow: %w", err)
	}

	followers, err := s.fr.CountFollowers(ctx, followeeID)
	if err != nil {
		return false, 0, fmt.Errorf("error counting followers: %w", err)
	}
	return following, followers, nil
}
