package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/storage"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	editTokenLen      = 32
)

// allowedUploadTypes maps the accepted file extensions to the media kind
// they produce. Extension and sniffed content must agree before anything is
// written.
var allowedUploadTypes = map[string]string{
	"jpg":  models.KindImage,
	"jpeg": models.KindImage,
	"png":  models.KindImage,
	"webp": models.KindImage,
	"mp4":  models.KindVideo,
	"webm": models.KindVideo,
}

type PostService interface {
	CreateFromUpload(ctx context.Context, userID int64, fh, thumb *multipart.FileHeader, title, description, format string) (*models.Post, error)
	GetPost(ctx context.Context, postID, viewerID int64, editToken string) (*models.FeedPost, error)
	ListPosts(ctx context.Context, opts *repository.PostListOptions) ([]*models.FeedPost, error)
	UpdatePost(ctx context.Context, postID, userID int64, editToken string, req *transfer.PostUpdateRequest) (*models.Post, error)
	Publish(ctx context.Context, postID, userID int64, editToken string) (*models.Post, error)
	Remove(ctx context.Context, postID, userID int64, editToken string, isAdmin bool) error
}

type postService struct {
	pr repository.PostRepository
	st storage.Storage
}

func NewPostService(pr repository.PostRepository, st storage.Storage) PostService {
	return &postService{
		pr: pr,
		st: st,
	}
}

// normalizeExt folds the jpg/jpeg alias so extension checks compare against
// what the sniffer reports.
func normalizeExt(ext string) string {
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}

type sniffedUpload struct {
	fileType types.Type
	kind     string
}

// sniffUpload checks the filename extension against the allow-list and
// verifies the magic bytes agree with it. Nothing is written anywhere until
// both checks pass for every file in the request.
func sniffUpload(fh *multipart.FileHeader) (*sniffedUpload, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fh.Filename), "."))
	kind, ok := allowedUploadTypes[ext]
	if !ok {
		err := fmt.Errorf("%w: extension %q is not allowed", ErrUnsupportedFile, ext)
		slog.Info(err.Error())
		return nil, err
	}

	file, err := fh.Open()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	// 261 bytes covers every magic number the sniffer knows about.
	head := make([]byte, 261)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(head[:n])
	if err != nil || fileType == types.Unknown {
		err = fmt.Errorf("%w: unrecognized content", ErrUnsupportedFile)
		slog.Info(err.Error())
		return nil, err
	}
	if fileType.Extension != normalizeExt(ext) {
		err = fmt.Errorf("%w: extension %q does not match content %q", ErrUnsupportedFile, ext, fileType.Extension)
		slog.Info(err.Error())
		return nil, err
	}
	return &sniffedUpload{fileType: fileType, kind: kind}, nil
}

// saveUpload stores the upload under key and returns its public URL.
func (s *postService) saveUpload(ctx context.Context, fh *multipart.FileHeader, sniffed *sniffedUpload, key string) (string, error) {
	file, err := fh.Open()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	url, err := s.st.Save(ctx, key, sniffed.fileType.MIME.Value, file)
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return url, nil
}

// discard best-effort-deletes a stored object while unwinding a failed
// create. Failures are logged; an orphaned object is only wasted space.
func (s *postService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.st.Delete(ctx, key); err != nil {
		slog.Info(err.Error())
	}
}

func (s *postService) CreateFromUpload(ctx context.Context, userID int64, fh, thumb *multipart.FileHeader, title, description, format string) (*models.Post, error) {
	if fh == nil {
		err := errors.New("no file provided")
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title too long", ErrInvalidInput)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description too long", ErrInvalidInput)
	}

	sniffed, err := sniffUpload(fh)
	if err != nil {
		return nil, err
	}

	var thumbSniffed *sniffedUpload
	if thumb != nil {
		thumbSniffed, err = sniffUpload(thumb)
		if err != nil {
			return nil, err
		}
		if thumbSniffed.kind != models.KindImage {
			err = fmt.Errorf("%w: thumbnail must be an image", ErrUnsupportedFile)
			slog.Info(err.Error())
			return nil, err
		}
	}

	// Images are always photos; videos default to the long format.
	switch {
	case sniffed.kind == models.KindImage:
		format = models.FormatPhoto
	case format == "":
		format = models.FormatLong
	case format != models.FormatLong && format != models.FormatShort:
		return nil, fmt.Errorf("%w: format %q is not valid for video", ErrInvalidInput, format)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key = key + "." + sniffed.fileType.Extension

	editToken, err := gonanoid.New(editTokenLen)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	fileURL, err := s.saveUpload(ctx, fh, sniffed, key)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:      userID,
		FileName:    key,
		FileURL:     fileURL,
		Kind:        sniffed.kind,
		Format:      format,
		Title:       title,
		Description: description,
		Status:      models.PostStatusDraft,
		EditToken:   editToken,
	}

	if thumb != nil {
		thumbKey, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			s.discard(ctx, key)
			return nil, err
		}
		thumbKey = thumbKey + "." + thumbSniffed.fileType.Extension

		thumbURL, err := s.saveUpload(ctx, thumb, thumbSniffed, thumbKey)
		if err != nil {
			s.discard(ctx, key)
			return nil, err
		}
		post.ThumbnailName = thumbKey
		post.ThumbnailURL = thumbURL
	}

	if _, err := s.pr.Create(ctx, post); err != nil {
		s.discard(ctx, post.FileName)
		s.discard(ctx, post.ThumbnailName)
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

func (s *postService) GetPost(ctx context.Context, postID, viewerID int64, editToken string) (*models.FeedPost, error) {
	if postID == 0 {
		return nil, fmt.Errorf("%w: post id is not valid", ErrInvalidInput)
	}

	fp, err := s.pr.GetFeedByID(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if fp == nil {
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}
	if fp.Status == models.PostStatusPublished {
		return fp, nil
	}

	// Drafts exist only for their owner or a caller holding the edit token.
	if viewerID != 0 && viewerID == fp.UserID {
		return fp, nil
	}
	if editToken != "" {
		post, err := s.pr.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post != nil && tokenMatches(post, editToken) {
			return fp, nil
		}
	}
	return nil, fmt.Errorf("%w: post", ErrNotFound)
}

func (s *postService) ListPosts(ctx context.Context, opts *repository.PostListOptions) ([]*models.FeedPost, error) {
	switch opts.Sort {
	case "", models.SortLatest, models.SortTrending:
	default:
		return nil, fmt.Errorf("%w: sort %q", ErrInvalidInput, opts.Sort)
	}
	switch opts.Format {
	case "", models.FormatLong, models.FormatShort, models.FormatPhoto:
	default:
		return nil, fmt.Errorf("%w: format %q", ErrInvalidInput, opts.Format)
	}
	switch opts.Kind {
	case "", models.KindImage, models.KindVideo:
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidInput, opts.Kind)
	}

	posts, err := s.pr.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) UpdatePost(ctx context.Context, postID, userID int64, editToken string, req *transfer.PostUpdateRequest) (*models.Post, error) {
	if req == nil {
		err := errors.New("post update data is nil")
		slog.Error(err.Error())
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	post, err := s.getEditable(ctx, postID, userID, editToken, false)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(req.Title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title too long", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description too long", ErrInvalidInput)
	}

	format := post.Format
	if req.Format != "" && req.Format != post.Format {
		if post.Kind == models.KindImage {
			return nil, fmt.Errorf("%w: photos cannot change format", ErrInvalidInput)
		}
		if req.Format != models.FormatLong && req.Format != models.FormatShort {
			return nil, fmt.Errorf("%w: format %q is not valid for video", ErrInvalidInput, req.Format)
		}
		format = req.Format
	}

	post.Title = req.Title
	post.Description = req.Description
	post.Format = format

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	return post, nil
}

func (s *postService) Publish(ctx context.Context, postID, userID int64, editToken string) (*models.Post, error) {
	post, err := s.getEditable(ctx, postID, userID, editToken, false)
	if err != nil {
		return nil, err
	}

	// Publishing twice is a no-op.
	if post.Status == models.PostStatusPublished {
		return post, nil
	}
	if strings.TrimSpace(post.Title) == "" {
		return nil, fmt.Errorf("%w: title is required to publish", ErrInvalidInput)
	}

	if err := s.pr.Publish(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("error publishing post: %w", err)
	}
	post.Status = models.PostStatusPublished
	post.EditToken = ""
	return post, nil
}

func (s *postService) Remove(ctx context.Context, postID, userID int64, editToken string, isAdmin bool) error {
	post, err := s.getEditable(ctx, postID, userID, editToken, isAdmin)
	if err != nil {
		return err
	}

	if err := s.pr.Remove(ctx, post.ID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	// The row is gone; storage failures are logged rather than surfaced.
	s.discard(ctx, post.FileName)
	s.discard(ctx, post.ThumbnailName)
	return nil
}

// getEditable loads the post and authorizes a mutating caller: the owner, an
// admin, or someone holding the draft's edit token. Unauthorized access to a
// draft reports not-found so drafts stay invisible.
func (s *postService) getEditable(ctx context.Context, postID, userID int64, editToken string, isAdmin bool) (*models.Post, error) {
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

	if isAdmin || (userID != 0 && userID == post.UserID) {
		return post, nil
	}
	if post.Status == models.PostStatusDraft {
		if tokenMatches(post, editToken) {
			return post, nil
		}
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}
	return nil, ErrForbidden
}

func tokenMatches(post *models.Post, editToken string) bool {
	if editToken == "" || post.EditToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(editToken), []byte(post.EditToken)) == 1
}
