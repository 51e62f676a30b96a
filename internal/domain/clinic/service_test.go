package clinic

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/access/accesstest"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/pkg/pagination"
)

type mockRepo struct {
	store    map[uuid.UUID]*Clinic
	patients map[uuid.UUID]int
	deleted  []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: map[uuid.UUID]*Clinic{}, patients: map[uuid.UUID]int{}}
}

func (m *mockRepo) Create(_ context.Context, c *Clinic) error {
	for _, existing := range m.store {
		if existing.Slug == c.Slug {
			return apierror.Conflict("Clinic already exists")
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Clinic, error) {
	c, ok := m.store[id]
	if !ok {
		return nil, apierror.NotFound("Clinic")
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, c *Clinic) error {
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	delete(m.store, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, ids []uuid.UUID, params pagination.Params) ([]*Clinic, int, error) {
	allowed := map[uuid.UUID]bool{}
	for _, id := range ids {
		allowed[id] = true
	}
	var out []*Clinic
	for _, c := range m.store {
		if ids == nil || allowed[c.ID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *mockRepo) CountPatients(_ context.Context, id uuid.UUID) (int, error) {
	return m.patients[id], nil
}

func (m *mockRepo) Statistics(_ context.Context, id uuid.UUID) (*Statistics, error) {
	return &Statistics{ClinicID: id, Patients: m.patients[id]}, nil
}

func (m *mockRepo) ListPublic(_ context.Context, params pagination.Params) ([]*PublicClinic, int, error) {
	var out []*PublicClinic
	for _, c := range m.store {
		if c.IsActive && c.IsPublic {
			out = append(out, &PublicClinic{ID: c.ID, Name: c.Name, Slug: c.Slug})
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) GetPublic(_ context.Context, id uuid.UUID) (*PublicClinic, error) {
	c, ok := m.store[id]
	if !ok || !c.IsActive || !c.IsPublic {
		return nil, apierror.NotFound("Clinic")
	}
	return &PublicClinic{ID: c.ID, Name: c.Name, Slug: c.Slug}, nil
}

type fixture struct {
	svc    *Service
	repo   *mockRepo
	access *accesstest.Store
	north  *Clinic
	south  *Clinic
	admin  access.Actor
	doctor access.Actor
}

func newFixture() *fixture {
	f := &fixture{repo: newMockRepo(), admin: accesstest.Actor(), doctor: accesstest.Actor()}
	f.svc = NewService(f.repo)
	f.north = &Clinic{Name: "North", Slug: "north", IsActive: true, IsPublic: true}
	f.south = &Clinic{Name: "South", Slug: "south", IsActive: true}
	_ = f.repo.Create(context.Background(), f.north)
	_ = f.repo.Create(context.Background(), f.south)

	f.access = accesstest.NewStore(f.north.ID, f.south.ID)
	f.access.Grant(f.admin, f.north.ID, access.RoleAdmin)
	f.access.Grant(f.doctor, f.north.ID, access.RoleDoctor)
	return f
}

func (f *fixture) ctx(a access.Actor) context.Context {
	return f.access.Context(context.Background(), a)
}

var firstPage = pagination.Params{Page: 1, PerPage: 15}

func TestService_ListMemberClinics(t *testing.T) {
	f := newFixture()
	page, err := f.svc.List(f.ctx(f.doctor), firstPage)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, f.north.ID, page.Data[0].ID)
}

func TestService_ListSuperAdminSeesAll(t *testing.T) {
	f := newFixture()
	page, err := f.svc.List(f.ctx(accesstest.SuperAdmin()), firstPage)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestService_ListWithoutMembership(t *testing.T) {
	f := newFixture()
	_, err := f.svc.List(f.ctx(accesstest.Actor()), firstPage)
	assert.ErrorIs(t, err, apierror.ErrNoClinicAccess)
}

func TestService_CreateRequiresSystemRole(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(f.ctx(f.admin), &CreateRequest{Name: "East"})
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))

	c, err := f.svc.Create(f.ctx(accesstest.SuperAdmin()), &CreateRequest{Name: "East Side Clinic"})
	require.NoError(t, err)
	assert.Equal(t, "east-side-clinic", c.Slug)
	assert.True(t, c.IsActive)
}

func TestService_CreateDuplicateSlug(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(f.ctx(accesstest.SuperAdmin()), &CreateRequest{Name: "North"})
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestService_GetOtherClinic(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(f.ctx(f.doctor), f.south.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No access to this clinic")
}

func TestService_UpdateRequiresPermission(t *testing.T) {
	f := newFixture()
	name := "North Renamed"

	_, err := f.svc.Update(f.ctx(f.doctor), f.north.ID, &UpdateRequest{Name: &name})
	assert.Contains(t, err.Error(), "Missing permission: clinics.update")

	c, err := f.svc.Update(f.ctx(f.admin), f.north.ID, &UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, c.Name)
	assert.Equal(t, "north", c.Slug)
}

func TestService_DeactivatedClinicStillAdministrable(t *testing.T) {
	f := newFixture()
	inactive := false
	_, err := f.svc.Update(f.ctx(f.admin), f.north.ID, &UpdateRequest{IsActive: &inactive})
	require.NoError(t, err)

	c, err := f.svc.Get(f.ctx(f.admin), f.north.ID)
	require.NoError(t, err)
	assert.False(t, c.IsActive)
}

func TestService_DeleteWithPatients(t *testing.T) {
	f := newFixture()
	f.repo.patients[f.north.ID] = 3

	err := f.svc.Delete(f.ctx(f.admin), f.north.ID)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
	assert.Empty(t, f.repo.deleted)

	f.repo.patients[f.north.ID] = 0
	require.NoError(t, f.svc.Delete(f.ctx(f.admin), f.north.ID))
	assert.Equal(t, []uuid.UUID{f.north.ID}, f.repo.deleted)
}

func TestService_Statistics(t *testing.T) {
	f := newFixture()
	f.repo.patients[f.north.ID] = 7

	stats, err := f.svc.Statistics(f.ctx(f.admin), f.north.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Patients)

	_, err = f.svc.Statistics(f.ctx(f.doctor), f.south.ID)
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))
}

func TestService_PublicOnlyActivePublic(t *testing.T) {
	f := newFixture()
	page, err := f.svc.ListPublic(context.Background(), firstPage)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "north", page.Data[0].Slug)

	_, err = f.svc.GetPublic(context.Background(), f.south.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"North Clinic":        "north-clinic",
		"  St. Mary's -- 24h": "st-mary-s-24h",
		"!!!":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
