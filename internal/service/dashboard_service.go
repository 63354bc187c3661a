package service

import (
	"context"

	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/repository"
)

// DashboardModule is a dashboard tile the caller may open.
type DashboardModule struct {
	Resource model.Resource `json:"resource"`
	Name     string         `json:"name"`
	Level    access.Level   `json:"level"`
}

type DashboardSummary struct {
	Center         model.Center                    `json:"center"`
	Permissions    map[model.Resource]access.Level `json:"permissions"`
	Modules        []DashboardModule               `json:"modules"`
	AssignedUsers  int64                           `json:"assigned_users"`
	ActiveSessions int                             `json:"active_sessions"`
}

type DashboardService interface {
	CenterDashboard(ctx context.Context, role model.RoleCode, c model.Center) (*DashboardSummary, error)
}

type dashboardService struct {
	assignmentRepo repository.AssignmentRepository
	sessions       SessionService
	resolver       *access.Resolver
}

func NewDashboardService(assignmentRepo repository.AssignmentRepository, sessions SessionService, resolver *access.Resolver) DashboardService {
	return &dashboardService{assignmentRepo: assignmentRepo, sessions: sessions, resolver: resolver}
}

func (s *dashboardService) CenterDashboard(ctx context.Context, role model.RoleCode, c model.Center) (*DashboardSummary, error) {
	assigned, err := s.assignmentRepo.CountUsersByCenter(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	row := s.resolver.Row(role)
	modules := make([]DashboardModule, 0, len(model.DefaultResources))
	for _, info := range model.DefaultResources {
		if level := row[info.Code]; level.Satisfies(access.Read) {
			modules = append(modules, DashboardModule{Resource: info.Code, Name: info.Name, Level: level})
		}
	}

	return &DashboardSummary{
		Center:         c,
		Permissions:    row,
		Modules:        modules,
		AssignedUsers:  assigned,
		ActiveSessions: s.sessions.Count(),
	}, nil
}
