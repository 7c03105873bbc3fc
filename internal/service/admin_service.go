package service

import (
	"context"
	"fmt"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

type AdminService interface {
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, error)
	SetUserFlags(ctx context.Context, actorID, targetID int64, flags repository.UserFlags) error
	RemoveUser(ctx context.Context, actorID, targetID int64) error
}

type adminService struct {
	u  repository.UserRepository
	us UserService
}

func NewAdminService(u repository.UserRepository, us UserService) AdminService {
	return &adminService{
		u:  u,
		us: us,
	}
}

func (s *adminService) ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = repository.DefaultLimit
	}
	if limit > repository.MaxLimit {
		limit = repository.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.u.List(ctx, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

func (s *adminService) SetUserFlags(ctx context.Context, actorID, targetID int64, flags repository.UserFlags) error {
	if targetID == 0 {
		return fmt.Errorf("%w: user id is not valid", ErrInvalidInput)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot change your own flags", ErrForbidden)
	}

	target, exists, err := s.u.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	// The owner account can never be flagged, banned or demoted.
	if target.IsOwner {
		return fmt.Errorf("%w: owner account is protected", ErrForbidden)
	}

	if err := s.u.SetFlags(ctx, targetID, flags); err != nil {
		return fmt.Errorf("error setting user flags: %w", err)
	}
	return nil
}

func (s *adminService) RemoveUser(ctx context.Context, actorID, targetID int64) error {
	if targetID == 0 {
		return fmt.Errorf("%w: user id is not valid", ErrInvalidInput)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot remove your own account here", ErrForbidden)
	}

	target, exists, err := s.u.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	if target.IsOwner {
		return fmt.Errorf("%w: owner account is protected", ErrForbidden)
	}

	return s.us.RemoveUser(ctx, targetID)
}
