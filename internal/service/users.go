package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contentnode/internal/domain"
	"contentnode/internal/repository"
)

// UserService manages backend users and their group memberships
type UserService struct {
	objects *ObjectService
}

// NewUserService creates a new user service
func NewUserService(objects *ObjectService) *UserService {
	return &UserService{objects: objects}
}

// Create stores a new user with the password. Logins are unique ignoring case.
func (s *UserService) Create(ctx context.Context, user *domain.SystemUser, password string) error {
	if _, err := s.ByLogin(ctx, user.Login); err == nil {
		return fmt.Errorf("login %q: %w", user.Login, repository.ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s.objects.Create(ctx, user)
}

// Update applies changes to the user. A new login must not be used by
// another user, ignoring case.
func (s *UserService) Update(ctx context.Context, userID int, apply func(domain.NodeObject) error) (*domain.SystemUser, error) {
	obj, err := s.objects.Update(ctx, domain.TypeSystemUser, userID, func(obj domain.NodeObject) error {
		if err := apply(obj); err != nil {
			return err
		}
		user := obj.(*domain.SystemUser)
		other, err := s.ByLogin(ctx, user.Login)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if other.ID != user.ID {
			return fmt.Errorf("login %q: %w", user.Login, repository.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*domain.SystemUser), nil
}

// ByLogin returns the user with the login
func (s *UserService) ByLogin(ctx context.Context, login string) (*domain.SystemUser, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("%w: empty login", ErrInvalid)
	}
	objs, err := s.objects.repo.List(ctx, repository.Filter{Type: domain.TypeSystemUser, Name: login})
	if err != nil {
		return nil, err
	}
	for _, obj := range objs {
		if u, ok := obj.(*domain.SystemUser); ok && strings.EqualFold(u.Login, login) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", login, repository.ErrNotFound)
}

// Authenticate checks the credentials and returns the user
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*domain.SystemUser, error) {
	user, err := s.ByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrInvalid) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.Active || !user.CheckPassword(password) {
		s.objects.logger.Warn("Failed login", "login", login)
		return nil, ErrUnauthorized
	}
	return user, nil
}

// SetPassword replaces the password of the user
func (s *UserService) SetPassword(ctx context.Context, userID int, password string) error {
	_, err := s.objects.Update(ctx, domain.TypeSystemUser, userID, func(obj domain.NodeObject) error {
		return obj.(*domain.SystemUser).SetPassword(password)
	})
	return err
}

// AddToGroup makes the user a member of the group
func (s *UserService) AddToGroup(ctx context.Context, userID, groupID int) error {
	if _, err := s.objects.repo.Get(ctx, domain.TypeUserGroup, groupID); err != nil {
		return err
	}
	_, err := s.objects.Update(ctx, domain.TypeSystemUser, userID, func(obj domain.NodeObject) error {
		return obj.(*domain.SystemUser).AddGroup(groupID)
	})
	return err
}

// RemoveFromGroup ends the membership of the user in the group
func (s *UserService) RemoveFromGroup(ctx context.Context, userID, groupID int) error {
	_, err := s.objects.Update(ctx, domain.TypeSystemUser, userID, func(obj domain.NodeObject) error {
		return obj.(*domain.SystemUser).RemoveGroup(groupID)
	})
	return err
}

// Members returns the users of the group
func (s *UserService) Members(ctx context.Context, groupID int) ([]*domain.SystemUser, error) {
	ids, err := s.objects.repo.GroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	users := make([]*domain.SystemUser, 0, len(ids))
	for _, id := range ids {
		obj, err := s.objects.repo.Get(ctx, domain.TypeSystemUser, id)
		if err != nil {
			return nil, err
		}
		users = append(users, obj.(*domain.SystemUser))
	}
	return users, nil
}
