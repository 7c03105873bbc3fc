package service

import (
	"context"
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

const maxNameLen = 80

var allowedAvatarTypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "webp": {},
}

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	Profile(ctx context.Context, profileID, viewerID int64) (*transfer.ProfileResponse, error)
	UpdateName(ctx context.Context, userID int64, name string) error
	UpdateAvatar(ctx context.Context, userID int64, fh *multipart.FileHeader) (string, error)
	Followers(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error)
	Following(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u  repository.UserRepository
	pr repository.PostRepository
	fr repository.FollowRepository
	st storage.Storage
}

func NewUserService(u repository.UserRepository, pr repository.PostRepository, fr repository.FollowRepository, st storage.Storage) UserService {
	return &userService{
		u:  u,
		pr: pr,
		fr: fr,
		st: st,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, exists, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return user, nil
}

func (s *userService) Profile(ctx context.Context, profileID, viewerID int64) (*transfer.ProfileResponse, error) {
	user, err := s.GetUserInfo(ctx, profileID)
	if err != nil {
		return nil, err
	}

	posts, followers, following, err := s.u.ProfileCounts(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("error getting profile counts: %w", err)
	}

	viewerFollows := false
	if viewerID != 0 && viewerID != profileID {
		viewerFollows, err = s.fr.Exists(ctx, viewerID, profileID)
		if err != nil {
			return nil, err
		}
	}

	return &transfer.ProfileResponse{
		ID:             user.ID,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		IsVerified:     user.IsVerified,
		IsStaff:        user.IsStaff,
		PostCount:      posts,
		FollowerCount:  followers,
		FollowingCount: following,
		ViewerFollows:  viewerFollows,
	}, nil
}

func (s *userService) UpdateName(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("%w: name too long", ErrInvalidInput)
	}

	user, err := s.GetUserInfo(ctx, userID)
	if err != nil {
		return err
	}

	user.Name = name
	if err := s.u.Update(ctx, user); err != nil {
		return fmt.Errorf("error updating name: %w", err)
	}
	return nil
}

func (s *userService) UpdateAvatar(ctx context.Context, userID int64, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		err := errors.New("no file provided")
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fh.Filename), "."))
	if _, ok := allowedAvatarTypes[ext]; !ok {
		err := fmt.Errorf("%w: extension %q is not allowed for avatars", ErrUnsupportedFile, ext)
		slog.Info(err.Error())
		return "", err
	}

	file, err := fh.Open()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		slog.Info(err.Error())
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(head[:n])
	if err != nil || fileType == types.Unknown || !strings.HasPrefix(fileType.MIME.Value, "image/") {
		err = fmt.Errorf("%w: avatar must be an image", ErrUnsupportedFile)
		slog.Info(err.Error())
		return "", err
	}
	if fileType.Extension != normalizeExt(ext) {
		err = fmt.Errorf("%w: extension %q does not match content %q", ErrUnsupportedFile, ext, fileType.Extension)
		slog.Info(err.Error())
		return "", err
	}

	user, err := s.GetUserInfo(ctx, userID)
	if err != nil {
		return "", err
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	key = key + "." + fileType.Extension

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error rewinding file: %w", err)
	}

	avatarURL, err := s.st.Save(ctx, key, fileType.MIME.Value, file)
	if err != nil {
		return "", fmt.Errorf("error uploading avatar: %w", err)
	}

	user.AvatarURL = avatarURL
	if err := s.u.Update(ctx, user); err != nil {
		if delErr := s.st.Delete(ctx, key); delErr != nil {
			slog.Info(delErr.Error())
		}
		return "", fmt.Errorf("error updating avatar: %w", err)
	}
	return avatarURL, nil
}

func (s *userService) Followers(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error) {
	authors, err := s.fr.ListFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing followers: %w", err)
	}
	return authors, nil
}

func (s *userService) Following(ctx context.Context, userID int64, limit, offset int) ([]models.Author, error) {
	authors, err := s.fr.ListFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing following: %w", err)
	}
	return authors, nil
}

// RemoveUser deletes the account. Post rows cascade in the database; their
// media objects are removed here first so nothing orphans in storage.
func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	opts := &repository.PostListOptions{
		AuthorID: userID,
		Status:   repository.StatusAny,
		Limit:    repository.MaxLimit,
	}
	for {
		posts, err := s.pr.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("error listing posts: %w", err)
		}
		for _, p := range posts {
			if err := s.st.Delete(ctx, p.FileName); err != nil {
				slog.Info(err.Error())
			}
			if p.ThumbnailName != "" {
				if err := s.st.Delete(ctx, p.ThumbnailName); err != nil {
					slog.Info(err.Error())
				}
			}
		}
		if len(posts) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	if err := s.u.Remove(ctx, userID); err != nil {
		return fmt.Errorf("error removing user: %w", err)
	}
	return nil
}
