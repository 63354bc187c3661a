package service

import (
	"context"
	"errors"
	"fmt"

	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/repository"
	"go-extension-dashboard/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCenterNotFound  = errors.New("center not found")
	ErrNoCenters       = errors.New("no centers available")
	ErrDefaultInactive = errors.New("the default center cannot be deactivated")
)

// CenterDirectory answers which centers a user may select.
type CenterDirectory interface {
	AvailableFor(ctx context.Context, userID uuid.UUID, role model.RoleCode) ([]model.Center, error)
}

type centerDirectory struct {
	centerRepo     repository.CenterRepository
	assignmentRepo repository.AssignmentRepository
}

func NewCenterDirectory(centerRepo repository.CenterRepository, assignmentRepo repository.AssignmentRepository) CenterDirectory {
	return &centerDirectory{centerRepo: centerRepo, assignmentRepo: assignmentRepo}
}

func (d *centerDirectory) AvailableFor(ctx context.Context, userID uuid.UUID, role model.RoleCode) ([]model.Center, error) {
	all, err := d.centerRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active centers: %w", err)
	}
	assigned, err := d.assignmentRepo.GetAssignedCenters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading center assignments: %w", err)
	}
	return center.Available(all, assigned, role), nil
}

type CreateCenterRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Slug        string `json:"slug" validate:"required,slug,max=80"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

type SwitchCenterRequest struct {
	CenterID uint   `json:"center_id" validate:"required"`
	Location string `json:"location"`
}

type CenterService interface {
	List(ctx context.Context) ([]model.Center, error)
	Create(ctx context.Context, req *CreateCenterRequest) (*model.Center, error)
	Deactivate(ctx context.Context, id uint) error
	Switch(ctx context.Context, active *ActiveSession, req *SwitchCenterRequest) (center.SwitchResult, error)
}

type centerService struct {
	centerRepo repository.CenterRepository
	sessions   SessionService
	logger     *zap.Logger
}

func NewCenterService(centerRepo repository.CenterRepository, sessions SessionService, logger *zap.Logger) CenterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &centerService{centerRepo: centerRepo, sessions: sessions, logger: logger.Named("centers")}
}

func (s *centerService) List(ctx context.Context) ([]model.Center, error) {
	return s.centerRepo.FindAll(ctx)
}

// Create stores a new center. Slugs are unique across every center,
// active or not.
func (s *centerService) Create(ctx context.Context, req *CreateCenterRequest) (*model.Center, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	if existing, err := s.centerRepo.FindBySlug(ctx, req.Slug); err == nil && existing != nil {
		return nil, center.ErrDuplicateSlug
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &model.Center{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IsDefault:   req.IsDefault,
	}
	if err := s.centerRepo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, center.ErrDuplicateSlug
		}
		return nil, err
	}

	s.logger.Info("center created", zap.Uint("center_id", c.ID), zap.String("slug", c.Slug))
	if err := s.sessions.SyncAll(ctx); err != nil {
		s.logger.Warn("refreshing live sessions after center creation failed", zap.Error(err))
	}
	return c, nil
}

// Deactivate hides a center from every user. Live sessions drop it right
// away and fall back when it was their current center.
func (s *centerService) Deactivate(ctx context.Context, id uint) error {
	c, err := s.centerRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCenterNotFound
	}
	if err != nil {
		return err
	}
	if c.IsDefault {
		return ErrDefaultInactive
	}

	if err := s.centerRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCenterNotFound
		}
		return err
	}

	s.logger.Info("center deactivated", zap.Uint("center_id", id), zap.String("slug", c.Slug))
	if err := s.sessions.SyncAll(ctx); err != nil {
		s.logger.Warn("refreshing live sessions after deactivation failed", zap.Error(err))
	}
	return nil
}

// Switch changes the session's current center. The reported location is
// recorded first so a center-scoped page gets rewritten to the new slug.
func (s *centerService) Switch(ctx context.Context, active *ActiveSession, req *SwitchCenterRequest) (center.SwitchResult, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return center.SwitchResult{}, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if err := active.Center.WaitReady(ctx); err != nil {
		return center.SwitchResult{}, err
	}
	if req.Location != "" {
		active.Nav.SetLocation(req.Location)
	}

	res, err := active.Center.SwitchCenter(ctx, model.Center{ID: req.CenterID})
	if err != nil {
		return center.SwitchResult{}, err
	}
	if res.Changed {
		s.logger.Debug("center switched",
			zap.String("user_id", active.UserID.String()), zap.Uint("center_id", req.CenterID))
	}
	return res, nil
}
