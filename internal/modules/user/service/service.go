package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/modules/user/dto"
	"github.com/IMRiesen/avitolike/internal/modules/user/repository"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/IMRiesen/avitolike/pkg/token"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperror.ErrUnauthorized)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginRequest) (*dto.AuthResponse, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*dto.CurrentUserResponse, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*dto.SettingsResponse, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, input dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	tokens   *token.Manager
	hashCost int
	now      func() time.Time
}

// Option tweaks an AuthService.
type Option func(*authService)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *authService) { s.hashCost = cost }
}

func NewAuthService(repo repository.UserRepository, tokens *token.Manager, opts ...Option) AuthService {
	s := &authService{
		repo:     repo,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) Register(ctx context.Context, input dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.TrimSpace(input.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("email already registered: %w", apperror.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(input.Phone),
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user, entity.RoleUser); err != nil {
		// Unique indexes on email and username back up the pre-check
		// when two registrations race.
		if err = apperror.FromDB(err); errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("username or email already taken: %w", err)
		}
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("user registered")
	return s.buildAuthResponse(ctx, user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return s.buildAuthResponse(ctx, user)
}

func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*dto.CurrentUserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", apperror.FromDB(err))
	}

	roles, err := s.roleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.CurrentUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Roles:     roles,
	}, nil
}

// roleNames resolves roles at call time so a freshly granted role shows up
// on the next token without re-registration.
func (s *authService) roleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	names, err := s.repo.RoleNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []string{entity.RoleUser}, nil
	}
	return names, nil
}

func (s *authService) buildAuthResponse(ctx context.Context, user *entity.User) (*dto.AuthResponse, error) {
	roles, err := s.roleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	signed, expiresAt, err := s.tokens.Issue(user.ID, user.Username, user.Email, roles)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Roles:     roles,
		Token:     signed,
		ExpiresAt: expiresAt,
		CreatedAt: user.CreatedAt,
	}, nil
}
