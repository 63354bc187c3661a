package service

import (
	"context"
	"errors"
	"fmt"

	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/repository"
	"go-extension-dashboard/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmailExists = errors.New("email already exists")
	ErrInvalidRole = errors.New("role not found")
	// ErrRoleNotGrantable is returned when a non-superadmin grants or
	// revokes the superadmin role.
	ErrRoleNotGrantable = errors.New("only a superadmin can grant or revoke the superadmin role")
)

type UserService interface {
	CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeleteUser(userID uuid.UUID) error
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
	GetAssignedCenters(ctx context.Context, userID uuid.UUID) ([]uint, error)
	UpdateAssignedCenters(ctx context.Context, userID uuid.UUID, centerIDs []uint) ([]uint, error)
	GetUsersByCenter(ctx context.Context, centerID uint) ([]model.UserResponse, error)
}

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" validate:"required"`
	CenterIDs   []uint `json:"center_ids"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	Role        string  `json:"role" validate:"required"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo       repository.UserRepository
	centerRepo     repository.CenterRepository
	assignmentRepo repository.AssignmentRepository
	sessions       SessionService
	logger         *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, centerRepo repository.CenterRepository, assignmentRepo repository.AssignmentRepository, sessions SessionService, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		userRepo:       userRepo,
		centerRepo:     centerRepo,
		assignmentRepo: assignmentRepo,
		sessions:       sessions,
		logger:         logger.Named("users"),
	}
}

func validationError(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	return nil
}

func (s *userService) CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error) {
	if err := validationError(req); err != nil {
		return nil, err
	}

	existing, _ := s.userRepo.FindByEmail(req.Email)
	if existing != nil {
		return nil, ErrEmailExists
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, ErrInvalidRole
	}
	if role == model.RoleSuperAdmin && !s.isSuperAdmin(creatorID) {
		return nil, ErrRoleNotGrantable
	}

	centerIDs := dedupe(req.CenterIDs)
	if err := s.checkCenters(context.Background(), centerIDs); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
		IsActive:    true,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if len(centerIDs) > 0 {
		if err := s.assignmentRepo.SetAssignedCenters(context.Background(), user.ID, centerIDs); err != nil {
			return nil, err
		}
		return s.userRepo.FindByID(user.ID)
	}
	return user, nil
}

// isSuperAdmin reports whether actorID names an existing superadmin.
func (s *userService) isSuperAdmin(actorID string) bool {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return false
	}
	actor, err := s.userRepo.FindByID(id)
	if err != nil {
		return false
	}
	return actor.Role.Canonical() == model.RoleSuperAdmin
}

// checkCenters fails with ErrCenterNotFound unless every id is a known center.
func (s *userService) checkCenters(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.centerRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return ErrCenterNotFound
	}
	return nil
}

// UpdateUser saves profile changes. A role change or deactivation ends the
// user's current session.
func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if err := validationError(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.Email != user.Email {
		existing, _ := s.userRepo.FindByEmail(req.Email)
		if existing != nil {
			return nil, ErrEmailExists
		}
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, ErrInvalidRole
	}
	previous := user.Role.Canonical()
	if role != previous && (role == model.RoleSuperAdmin || previous == model.RoleSuperAdmin) && !s.isSuperAdmin(updaterID) {
		return nil, ErrRoleNotGrantable
	}

	endSession := role != previous
	user.Email = req.Email
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.Role = role
	if req.IsActive != nil {
		if user.IsActive && !*req.IsActive {
			endSession = true
		}
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updaterID

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}
	if endSession {
		user.TokenVersion = ""
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	if endSession {
		s.sessions.Close(userID)
	}

	return s.userRepo.FindByID(userID)
}

func (s *userService) DeleteUser(userID uuid.UUID) error {
	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}
	s.sessions.Close(userID)
	return nil
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) GetAssignedCenters(ctx context.Context, userID uuid.UUID) ([]uint, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, ErrUserNotFound
	}
	return s.assignmentRepo.GetAssignedCenters(ctx, userID)
}

// UpdateAssignedCenters replaces the user's assignments. Live sessions of
// the user pick the change up immediately.
func (s *userService) UpdateAssignedCenters(ctx context.Context, userID uuid.UUID, centerIDs []uint) ([]uint, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, ErrUserNotFound
	}

	ids := dedupe(centerIDs)
	if err := s.checkCenters(ctx, ids); err != nil {
		return nil, err
	}

	if err := s.assignmentRepo.SetAssignedCenters(ctx, userID, ids); err != nil {
		return nil, err
	}
	if err := s.sessions.SyncAvailable(ctx, userID); err != nil {
		s.logger.Warn("refreshing live session after assignment change failed",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
	return s.assignmentRepo.GetAssignedCenters(ctx, userID)
}

// GetUsersByCenter lists the users assigned to a center. Users deleted
// since their assignment are skipped.
func (s *userService) GetUsersByCenter(ctx context.Context, centerID uint) ([]model.UserResponse, error) {
	if _, err := s.centerRepo.FindByID(ctx, centerID); err != nil {
		return nil, ErrCenterNotFound
	}

	ids, err := s.assignmentRepo.FindUsersByCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, 0, len(ids))
	for _, id := range ids {
		user, err := s.userRepo.FindByID(id)
		if err != nil {
			continue
		}
		responses = append(responses, user.ToResponse())
	}
	return responses, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
