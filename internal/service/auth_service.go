package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/repository"
	"go-extension-dashboard/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// loginCenterWait bounds how long login waits for the center context
// before answering with whatever state it has.
const loginCenterWait = 3 * time.Second

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Authenticate(email, password string) (*model.User, error)
	Authorize(tokenString string) (*model.User, error)
	ResetPassword(email, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(userID uuid.UUID) error
	Logout(userID uuid.UUID) error
}

type LoginResponse struct {
	Token       string                          `json:"token"`
	User        model.UserResponse              `json:"user"`
	Permissions map[model.Resource]access.Level `json:"permissions"`
	Centers     center.State                    `json:"centers"`
}

type TokenValidationResponse struct {
	User        model.UserResponse              `json:"user"`
	Permissions map[model.Resource]access.Level `json:"permissions"`
}

type authService struct {
	userRepo    repository.UserRepository
	tokens      *jwt.Manager
	sessions    SessionService
	resolver    *access.Resolver
	notifier    Notifier
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, sessions SessionService, resolver *access.Resolver, notifier Notifier, idleTimeout time.Duration, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo:    userRepo,
		tokens:      tokens,
		sessions:    sessions,
		resolver:    resolver,
		notifier:    notifier,
		idleTimeout: idleTimeout,
		logger:      logger.Named("auth"),
		now:         time.Now,
	}
}

// Authenticate checks credentials and returns the active user they belong to.
func (s *authService) Authenticate(email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login rotates the token version so only the newest login stays valid,
// then opens the user's session.
func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.New("failed to update session")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, string(user.Role.Canonical()), user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	active := s.sessions.Open(user)

	ctx, cancel := context.WithTimeout(context.Background(), loginCenterWait)
	defer cancel()
	_ = active.Center.WaitReady(ctx)

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return &LoginResponse{
		Token:       token,
		User:        user.ToResponse(),
		Permissions: s.resolver.Row(user.Role),
		Centers:     active.Center.Snapshot(),
	}, nil
}

// Authorize validates a bearer token against the user's current token
// version and returns the user.
func (s *authService) Authorize(tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion == "" || user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	user.TokenVersion = ""
	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	s.sessions.Close(user.ID)
	return nil
}

// ValidateToken is Authorize plus the inactivity rule, for clients
// restoring a stored token.
func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	user, err := s.Authorize(tokenString)
	if err != nil {
		return nil, err
	}

	if user.LastSeenAt == nil || s.now().Sub(*user.LastSeenAt) > s.idleTimeout {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:        user.ToResponse(),
		Permissions: s.resolver.Row(user.Role),
	}, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	if err := s.userRepo.UpdateLastSeen(userID); err != nil {
		return err
	}
	s.sessions.Touch(userID)

	if s.notifier != nil {
		go s.notifier.BroadcastEvent(EventUserStatusUpdate, map[string]interface{}{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": s.now(),
		})
	}
	return nil
}

// Logout invalidates the user's token and tears the session down.
func (s *authService) Logout(userID uuid.UUID) error {
	if err := s.userRepo.UpdateTokenVersion(userID, ""); err != nil {
		return err
	}
	s.sessions.Close(userID)

	if s.notifier != nil {
		go s.notifier.BroadcastEvent(EventUserStatusUpdate, map[string]interface{}{
			"user_id": userID.String(),
			"status":  "offline",
		})
	}
	return nil
}
