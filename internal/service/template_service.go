package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// TemplateService defines the interface for scale template operations
type TemplateService interface {
	List(ctx context.Context, caller scope.Identity, query *dto.ListQuery) (*dto.ListResponse[domain.ScaleTemplate], error)
	Get(ctx context.Context, caller scope.Identity, id string) (*domain.ScaleTemplate, error)
	Create(ctx context.Context, caller scope.Identity, req *dto.CreateTemplateRequest) (*domain.ScaleTemplate, error)
	Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateTemplateRequest) (*domain.ScaleTemplate, error)
	Delete(ctx context.Context, caller scope.Identity, id string) error
	// Schedule lists the staffing slots of each occurrence in a window
	Schedule(ctx context.Context, caller scope.Identity, id string, window *dto.WindowQuery) (*dto.ScheduleResponse, error)
}

type templateService struct {
	templates  repository.TemplateRepository
	events     repository.EventRepository
	branches   repository.BranchRepository
	ministries repository.MinistryRepository
	resolver   *repository.TenantResolver
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templates repository.TemplateRepository, events repository.EventRepository,
	branches repository.BranchRepository, ministries repository.MinistryRepository,
	resolver *repository.TenantResolver, metrics *telemetry.Metrics) TemplateService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &templateService{
		templates:  templates,
		events:     events,
		branches:   branches,
		ministries: ministries,
		resolver:   resolver,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *templateService) List(ctx context.Context, caller scope.Identity, query *dto.ListQuery) (*dto.ListResponse[domain.ScaleTemplate], error) {
	query.SetDefaults()
	filter := scope.BuildFilter(caller, query.ScopeQuery())
	s.metrics.ScopedListings.Inc(ctx, telemetry.ResourceAttr("templates"), telemetry.RoleAttr(string(caller.Role)))

	templates, total, err := s.templates.List(ctx, repository.ListParams{
		Scope:      filter,
		MinistryID: query.MinistryID,
		Skip:       query.Skip(),
		Limit:      int64(query.Limit),
	})
	if err != nil {
		return nil, err
	}
	return listOf(templates, total, query.Pagination), nil
}

func (s *templateService) Get(ctx context.Context, caller scope.Identity, id string) (*domain.ScaleTemplate, error) {
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil || !scope.CanAccess(caller, tpl.TenantID, tpl.BranchID) {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

func (s *templateService) Create(ctx context.Context, caller scope.Identity, req *dto.CreateTemplateRequest) (*domain.ScaleTemplate, error) {
	if !caller.Role.IsAdmin() && !caller.Role.IsLeader() {
		return nil, ErrForbidden
	}
	own, err := placement(ctx, s.resolver, s.branches, caller, req.TenantID, req.BranchID)
	if err != nil {
		return nil, err
	}
	if err := checkMinistry(ctx, s.ministries, own, req.MinistryID); err != nil {
		return nil, err
	}
	if err := s.checkEvent(ctx, own, req.EventID); err != nil {
		return nil, err
	}
	rule := req.Recurrence.ToDomain()
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	tpl := &domain.ScaleTemplate{
		TenantID:    own.TenantID,
		BranchID:    own.BranchID,
		MinistryID:  req.MinistryID,
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		StartAt:     req.StartAt,
		Recurrence:  *rule,
		Functions:   dto.ToFunctions(req.Functions),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateTemplateRequest) (*domain.ScaleTemplate, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	tpl, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canSchedule(caller, tpl.TenantID, tpl.BranchID) {
		return nil, ErrForbidden
	}
	own := ownership{TenantID: tpl.TenantID, BranchID: tpl.BranchID}

	if req.Name != nil {
		tpl.Name = *req.Name
	}
	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.MinistryID != nil {
		if err := checkMinistry(ctx, s.ministries, own, *req.MinistryID); err != nil {
			return nil, err
		}
		tpl.MinistryID = *req.MinistryID
	}
	if req.EventID != nil {
		if err := s.checkEvent(ctx, own, *req.EventID); err != nil {
			return nil, err
		}
		tpl.EventID = *req.EventID
	}
	if req.StartAt != nil {
		tpl.StartAt = *req.StartAt
	}
	if req.Recurrence != nil {
		rule := req.Recurrence.ToDomain()
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		tpl.Recurrence = *rule
	}
	if req.Functions != nil {
		tpl.Functions = dto.ToFunctions(*req.Functions)
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	tpl.UpdatedAt = s.now().UTC()

	if err := s.templates.Update(ctx, tpl); err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}
	return tpl, nil
}

func (s *templateService) Delete(ctx context.Context, caller scope.Identity, id string) error {
	tpl, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if !canSchedule(caller, tpl.TenantID, tpl.BranchID) {
		return ErrForbidden
	}
	return notFound(s.templates.Delete(ctx, tpl.ID.Hex()), ErrTemplateNotFound)
}

// Schedule lists the staffing slots of each occurrence in a window.
// Inactive templates produce no slots.
func (s *templateService) Schedule(ctx context.Context, caller scope.Identity, id string, window *dto.WindowQuery) (*dto.ScheduleResponse, error) {
	tpl, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	from, to, err := window.Window(s.now().UTC(), DefaultWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	slots := []domain.ScheduleSlot{}
	if tpl.IsActive {
		slots = tpl.Schedule(from, to, window.Limit)
	}
	s.metrics.OccurrenceCount.Record(ctx, float64(len(slots)), telemetry.ResourceAttr("templates"))

	return &dto.ScheduleResponse{TemplateID: tpl.ID.Hex(), From: from, To: to, Slots: slots}, nil
}

func (s *templateService) checkEvent(ctx context.Context, own ownership, eventID string) error {
	if eventID == "" {
		return nil
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil || event.TenantID != own.TenantID ||
		(event.BranchID != "" && event.BranchID != own.BranchID) {
		return ErrEventNotFound
	}
	return nil
}
