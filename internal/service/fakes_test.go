package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/pkg/security"
)

// memStore is an in-memory document collection keyed by ObjectID hex
type memStore[T any] struct {
	mu         sync.Mutex
	items      map[string]*T
	order      []string
	id         func(*T) *primitive.ObjectID
	match      func(*T, repository.ListParams) bool
	lastParams repository.ListParams
	// vanish makes writes miss, as if the document was removed after it
	// was read
	vanish     bool
}

func newMemStore[T any](id func(*T) *primitive.ObjectID, match func(*T, repository.ListParams) bool) *memStore[T] {
	return &memStore[T]{items: make(map[string]*T), id: id, match: match}
}

func (s *memStore[T]) Create(_ context.Context, item *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid := s.id(item)
	if oid.IsZero() {
		*oid = primitive.NewObjectID()
	}
	cp := *item
	s.items[oid.Hex()] = &cp
	s.order = append(s.order, oid.Hex())
	return nil
}

func (s *memStore[T]) GetByID(_ context.Context, id string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (s *memStore[T]) List(_ context.Context, params repository.ListParams) ([]*T, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastParams = params
	out := make([]*T, 0)
	for _, key := range s.order {
		item, ok := s.items[key]
		if !ok || !s.match(item, params) {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	total := int64(len(out))
	if params.Skip < int64(len(out)) {
		out = out[params.Skip:]
	} else {
		out = out[:0]
	}
	if params.Limit > 0 && int64(len(out)) > params.Limit {
		out = out[:params.Limit]
	}
	return out, total, nil
}

func (s *memStore[T]) Update(_ context.Context, item *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.id(item).Hex()
	if _, ok := s.items[key]; !ok || s.vanish {
		return repository.ErrNotFound
	}
	cp := *item
	s.items[key] = &cp
	return nil
}

func (s *memStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok || s.vanish {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memStore[T]) all() []*T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*T, 0, len(s.items))
	for _, key := range s.order {
		if item, ok := s.items[key]; ok {
			out = append(out, item)
		}
	}
	return out
}

func matchScope(f scope.Filter, tenantID, branchID, role string, isActive bool) bool {
	if f.TenantID != nil && *f.TenantID != tenantID {
		return false
	}
	if f.BranchID != nil && *f.BranchID != branchID {
		return false
	}
	if f.Role != nil && *f.Role != role {
		return false
	}
	if f.IsActive != nil && *f.IsActive != isActive {
		return false
	}
	return true
}

// matchTenantWide is matchScope for collections whose branchless documents
// belong to every branch of the tenant
func matchTenantWide(f scope.Filter, tenantID, branchID, role string, isActive bool) bool {
	if branchID == "" {
		f.BranchID = nil
	}
	return matchScope(f, tenantID, branchID, role, isActive)
}

type fakeUserRepo struct {
	*memStore[domain.User]
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{newMemStore(
		func(u *domain.User) *primitive.ObjectID { return &u.ID },
		func(u *domain.User, p repository.ListParams) bool {
			if !matchScope(p.Scope, u.TenantID, u.BranchID, string(u.Role), u.IsActive) {
				return false
			}
			if p.Scope.Search != nil {
				term := strings.ToLower(*p.Scope.Search)
				return strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(u.Email, term)
			}
			return true
		},
	)}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.all() {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, _ := r.GetByID(ctx, id)
	if u == nil {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return r.Update(ctx, u)
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	u, _ := r.GetByID(ctx, id)
	if u == nil {
		return nil
	}
	u.LastLoginAt = &at
	return r.Update(ctx, u)
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

type fakeTenantRepo struct {
	*memStore[domain.Tenant]
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{newMemStore(
		func(t *domain.Tenant) *primitive.ObjectID { return &t.ID },
		func(*domain.Tenant, repository.ListParams) bool { return true },
	)}
}

func (r *fakeTenantRepo) GetByTenantID(_ context.Context, tenantID string) (*domain.Tenant, error) {
	for _, t := range r.all() {
		if t.TenantID == tenantID && t.DeletedAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTenantRepo) List(ctx context.Context, isActive *bool, _ string, skip, limit int64) ([]*domain.Tenant, int64, error) {
	var out []*domain.Tenant
	for _, t := range r.all() {
		if t.DeletedAt == nil && (isActive == nil || *isActive == t.IsActive) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTenantRepo) SoftDelete(ctx context.Context, id string) error {
	t, _ := r.GetByID(ctx, id)
	if t == nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	t.IsActive = false
	return r.Update(ctx, t)
}

func (r *fakeTenantRepo) ExistsByTenantID(_ context.Context, tenantID string) (bool, error) {
	for _, t := range r.all() {
		if t.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func newFakeBranchRepo() *memStore[domain.Branch] {
	return newMemStore(
		func(b *domain.Branch) *primitive.ObjectID { return &b.ID },
		func(b *domain.Branch, p repository.ListParams) bool {
			return matchScope(p.Scope, b.TenantID, b.ID.Hex(), "", b.IsActive)
		},
	)
}

func newFakeMinistryRepo() *memStore[domain.Ministry] {
	return newMemStore(
		func(m *domain.Ministry) *primitive.ObjectID { return &m.ID },
		func(m *domain.Ministry, p repository.ListParams) bool {
			return matchTenantWide(p.Scope, m.TenantID, m.BranchID, "", m.IsActive)
		},
	)
}

type fakeMembershipRepo struct {
	*memStore[domain.Membership]
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{newMemStore(
		func(m *domain.Membership) *primitive.ObjectID { return &m.ID },
		func(m *domain.Membership, p repository.ListParams) bool {
			if p.UserID != "" && p.UserID != m.UserID {
				return false
			}
			if p.MinistryID != "" && p.MinistryID != m.MinistryID {
				return false
			}
			return matchTenantWide(p.Scope, m.TenantID, m.BranchID, string(m.Role), m.IsActive)
		},
	)}
}

func (r *fakeMembershipRepo) FindActive(_ context.Context, userID, tenantID, branchID, ministryID string) (*domain.Membership, error) {
	for _, m := range r.all() {
		if m.IsActive && m.UserID == userID && m.TenantID == tenantID && m.BranchID == branchID && m.MinistryID == ministryID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func newFakeEventRepo() *memStore[domain.Event] {
	return newMemStore(
		func(e *domain.Event) *primitive.ObjectID { return &e.ID },
		func(e *domain.Event, p repository.ListParams) bool {
			if p.MinistryID != "" && p.MinistryID != e.MinistryID {
				return false
			}
			return matchTenantWide(p.Scope, e.TenantID, e.BranchID, "", true)
		},
	)
}

func newFakeTemplateRepo() *memStore[domain.ScaleTemplate] {
	return newMemStore(
		func(t *domain.ScaleTemplate) *primitive.ObjectID { return &t.ID },
		func(t *domain.ScaleTemplate, p repository.ListParams) bool {
			return matchTenantWide(p.Scope, t.TenantID, t.BranchID, "", t.IsActive)
		},
	)
}

// recordingPublisher captures published domain events
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// fixture wires every service on in-memory repositories with one tenant
// ("igreja-central") holding two branches
type fixture struct {
	users       *fakeUserRepo
	tenants     *fakeTenantRepo
	branches    *memStore[domain.Branch]
	ministries  *memStore[domain.Ministry]
	memberships *fakeMembershipRepo
	events      *memStore[domain.Event]
	templates   *memStore[domain.ScaleTemplate]
	resolver    *repository.TenantResolver
	hasher      *security.Hasher
	publisher   *recordingPublisher

	tenant  *domain.Tenant
	branchA *domain.Branch
	branchB *domain.Branch
}

func newFixture() *fixture {
	f := &fixture{
		users:       newFakeUserRepo(),
		tenants:     newFakeTenantRepo(),
		branches:    newFakeBranchRepo(),
		ministries:  newFakeMinistryRepo(),
		memberships: newFakeMembershipRepo(),
		events:      newFakeEventRepo(),
		templates:   newFakeTemplateRepo(),
		hasher:      security.NewHasher(4),
		publisher:   &recordingPublisher{},
	}
	f.resolver = repository.NewTenantResolver(f.tenants)

	ctx := context.Background()
	f.tenant = &domain.Tenant{TenantID: "igreja-central", Name: "Igreja Central", IsActive: true, Features: map[string]bool{}}
	_ = f.tenants.Create(ctx, f.tenant)
	f.branchA = &domain.Branch{TenantID: "igreja-central", Name: "Centro", IsActive: true}
	_ = f.branches.Create(ctx, f.branchA)
	f.branchB = &domain.Branch{TenantID: "igreja-central", Name: "Norte", IsActive: true}
	_ = f.branches.Create(ctx, f.branchB)
	return f
}

func (f *fixture) addUser(email string, role domain.Role, tenantID, branchID string) *domain.User {
	hash, _ := f.hasher.Hash("secret-pass")
	u := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.Split(email, "@")[0],
		Role:         role,
		TenantID:     tenantID,
		BranchID:     branchID,
		IsActive:     true,
	}
	_ = f.users.Create(context.Background(), u)
	return u
}

func identity(u *domain.User) scope.Identity {
	return scope.Identity{UserID: u.ID.Hex(), Role: u.Role, TenantID: u.TenantID, BranchID: u.BranchID}
}

func (f *fixture) userService() UserService {
	return NewUserService(f.users, f.branches, f.resolver, f.hasher, f.publisher, nil)
}
