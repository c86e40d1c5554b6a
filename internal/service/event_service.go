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

// DefaultWindow is the expansion span used when a window has no end
const DefaultWindow = 90 * 24 * time.Hour

// EventService defines the interface for event operations
type EventService interface {
	List(ctx context.Context, caller scope.Identity, query *dto.ListEventsQuery) (*dto.ListResponse[domain.Event], error)
	Get(ctx context.Context, caller scope.Identity, id string) (*domain.Event, error)
	Create(ctx context.Context, caller scope.Identity, req *dto.CreateEventRequest) (*domain.Event, error)
	Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateEventRequest) (*domain.Event, error)
	Delete(ctx context.Context, caller scope.Identity, id string) error
	// Occurrences expands the event's recurrence within a window
	Occurrences(ctx context.Context, caller scope.Identity, id string, window *dto.WindowQuery) (*dto.OccurrencesResponse, error)
}

type eventService struct {
	events     repository.EventRepository
	branches   repository.BranchRepository
	ministries repository.MinistryRepository
	resolver   *repository.TenantResolver
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(events repository.EventRepository, branches repository.BranchRepository,
	ministries repository.MinistryRepository, resolver *repository.TenantResolver, metrics *telemetry.Metrics) EventService {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &eventService{
		events:     events,
		branches:   branches,
		ministries: ministries,
		resolver:   resolver,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *eventService) List(ctx context.Context, caller scope.Identity, query *dto.ListEventsQuery) (*dto.ListResponse[domain.Event], error) {
	query.SetDefaults()
	q := query.ScopeQuery()
	q.IsActive = nil
	filter := scope.BuildFilter(caller, q)
	s.metrics.ScopedListings.Inc(ctx, telemetry.ResourceAttr("events"), telemetry.RoleAttr(string(caller.Role)))

	params := repository.ListParams{
		Scope:      filter,
		MinistryID: query.MinistryID,
		Skip:       query.Skip(),
		Limit:      int64(query.Limit),
	}
	if query.From != "" || query.To != "" {
		from, to, err := dto.WindowQuery{From: query.From, To: query.To}.Window(s.now().UTC(), DefaultWindow)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		params.From, params.To = &from, &to
	}

	events, total, err := s.events.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return listOf(events, total, query.Pagination), nil
}

func (s *eventService) Get(ctx context.Context, caller scope.Identity, id string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil || !scope.CanAccess(caller, event.TenantID, event.BranchID) {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) Create(ctx context.Context, caller scope.Identity, req *dto.CreateEventRequest) (*domain.Event, error) {
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
	rule := req.Recurrence.ToDomain()
	if rule != nil {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	now := s.now().UTC()
	event := &domain.Event{
		TenantID:    own.TenantID,
		BranchID:    own.BranchID,
		MinistryID:  req.MinistryID,
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Recurrence:  rule,
		Status:      domain.EventStatusScheduled,
		CreatedBy:   caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, caller scope.Identity, id string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	if req.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	event, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canSchedule(caller, event.TenantID, event.BranchID) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.MinistryID != nil {
		own := ownership{TenantID: event.TenantID, BranchID: event.BranchID}
		if err := checkMinistry(ctx, s.ministries, own, *req.MinistryID); err != nil {
			return nil, err
		}
		event.MinistryID = *req.MinistryID
	}
	if req.StartAt != nil {
		event.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		event.EndAt = *req.EndAt
	}
	if !event.EndAt.After(event.StartAt) {
		return nil, fmt.Errorf("%w: end_at must be after start_at", ErrInvalidInput)
	}
	switch {
	case req.ClearRecurrence:
		event.Recurrence = nil
	case req.Recurrence != nil:
		rule := req.Recurrence.ToDomain()
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		event.Recurrence = rule
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	event.UpdatedAt = s.now().UTC()

	if err := s.events.Update(ctx, event); err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, caller scope.Identity, id string) error {
	event, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if !canSchedule(caller, event.TenantID, event.BranchID) {
		return ErrForbidden
	}
	return notFound(s.events.Delete(ctx, event.ID.Hex()), ErrEventNotFound)
}

// Occurrences expands the event's recurrence within a window. Cancelled
// events have none.
func (s *eventService) Occurrences(ctx context.Context, caller scope.Identity, id string, window *dto.WindowQuery) (*dto.OccurrencesResponse, error) {
	event, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	from, to, err := window.Window(s.now().UTC(), DefaultWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	occurrences := []time.Time{}
	if event.Status != domain.EventStatusCancelled {
		occurrences = event.Occurrences(from, to, window.Limit)
	}
	s.metrics.OccurrenceCount.Record(ctx, float64(len(occurrences)), telemetry.ResourceAttr("events"))

	return &dto.OccurrencesResponse{
		EventID:     event.ID.Hex(),
		From:        from,
		To:          to,
		Duration:    event.Duration().String(),
		Occurrences: occurrences,
	}, nil
}

// checkMinistry verifies that ministryID, when set, belongs to the owner's
// tenant and is tenant-wide or in the owner's branch
func checkMinistry(ctx context.Context, ministries repository.MinistryRepository, own ownership, ministryID string) error {
	if ministryID == "" {
		return nil
	}
	ministry, err := ministries.GetByID(ctx, ministryID)
	if err != nil {
		return err
	}
	if ministry == nil || ministry.TenantID != own.TenantID ||
		(ministry.BranchID != "" && ministry.BranchID != own.BranchID) {
		return ErrMinistryNotFound
	}
	return nil
}
