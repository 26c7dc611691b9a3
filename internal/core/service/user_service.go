package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

type userService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	sessions ports.SessionRepository
	cache    ports.CapabilityCache
	now      func() time.Time
	log      zerolog.Logger
}

// NewUserService returns the directory's user administration service.
func NewUserService(users ports.UserRepository, roles ports.RoleRepository, sessions ports.SessionRepository, cache ports.CapabilityCache, log zerolog.Logger) ports.UserService {
	return &userService{users: users, roles: roles, sessions: sessions, cache: cache, now: time.Now, log: log}
}

func (s *userService) Create(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.Status == "" {
		input.Status = domain.StatusActive
	}
	if !domain.ValidStatus(input.Status) {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Username:     input.Username,
		Name:         input.Name,
		PasswordHash: string(hash),
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Update(ctx context.Context, id string, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, domain.ErrInvalidInput
		}
		user.Status = *input.Status
	}
	user.UpdatedAt = s.now().UTC()
	return s.users.Update(ctx, user)
}

// Delete hard-deletes the account only when no active session references it;
// otherwise the account transitions to INACTIVE and the sessions are
// revoked, so outstanding refresh tokens die with it.
func (s *userService) Delete(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.sessions.CountActiveForUser(ctx, id, s.now().UTC())
	if err != nil {
		return err
	}
	if active > 0 {
		user.Status = domain.StatusInactive
		user.UpdatedAt = s.now().UTC()
		if _, err := s.users.Update(ctx, user); err != nil {
			return err
		}
		if err := s.sessions.RevokeAllForUser(ctx, id); err != nil {
			return err
		}
		s.log.Info().Str("user_id", id).Msg("user deactivated instead of deleted, sessions revoked")
		return s.invalidate(ctx, id)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *userService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return err
	}
	if err := s.roles.Assign(ctx, userID, roleID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *userService) UnassignRole(ctx context.Context, userID, roleID string) error {
	if err := s.roles.Unassign(ctx, userID, roleID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *userService) RolesFor(ctx context.Context, userID string) ([]*domain.Role, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.roles.RolesForUser(ctx, userID)
}

// invalidate drops the cached effective set before the mutation is reported
// back to the caller. A revoked grant must stop authorizing immediately.
func (s *userService) invalidate(ctx context.Context, userIDs ...string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		return err
	}
	return nil
}
