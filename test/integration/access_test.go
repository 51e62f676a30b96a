//go:build integration

package integration

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/domain/clinic"
	"github.com/clinicemr/api/internal/domain/encounter"
	"github.com/clinicemr/api/internal/domain/patient"
	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/domain/setting"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/pkg/pagination"
)

func TestStore_MembershipsCarryRolePermissions(t *testing.T) {
	ctx := context.Background()
	clinicID := createClinic(t, ctx, "north")
	doc := createActor(t, ctx, "")
	grant(t, ctx, doc, clinicID, access.RoleDoctor)

	ms, err := globalStore.ListMemberships(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, clinicID, ms[0].ClinicID)
	assert.True(t, ms[0].Active)
	assert.True(t, ms[0].Role.Grants(access.PatientsView))
	assert.False(t, ms[0].Role.Grants(access.UsersManage))
}

func TestStore_AddMembership(t *testing.T) {
	ctx := context.Background()
	clinicID := createClinic(t, ctx, "south")
	nurse := createActor(t, ctx, "")
	grant(t, ctx, nurse, clinicID, access.RoleNurse)

	t.Run("duplicate is a conflict", func(t *testing.T) {
		err := globalStore.AddMembership(ctx, nurse.ID, clinicID, access.RoleNurse)
		assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
	})

	t.Run("inactive membership is reactivated", func(t *testing.T) {
		_, err := globalPool.Exec(ctx,
			`UPDATE clinic_memberships SET is_active = FALSE WHERE actor_id = $1 AND clinic_id = $2`, nurse.ID, clinicID)
		require.NoError(t, err)

		require.NoError(t, globalStore.AddMembership(ctx, nurse.ID, clinicID, access.RoleReceptionist))

		m, err := globalStore.GetMember(ctx, clinicID, nurse.ID)
		require.NoError(t, err)
		assert.True(t, m.MembershipActive)
		assert.Equal(t, access.RoleReceptionist, m.Role)
	})
}

func TestPatients_ClinicIsolation(t *testing.T) {
	ctx := context.Background()
	clinicA := createClinic(t, ctx, "alpha")
	clinicB := createClinic(t, ctx, "beta")
	docA := createActor(t, ctx, "")
	docB := createActor(t, ctx, "")
	grant(t, ctx, docA, clinicA, access.RoleDoctor)
	grant(t, ctx, docB, clinicB, access.RoleDoctor)

	svc := patient.NewService(patient.NewRepo(globalPool))

	created, err := svc.Create(as(ctx, docA), &patient.CreateRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, clinicA, created.ClinicID)

	t.Run("owner clinic lists it", func(t *testing.T) {
		page, err := svc.List(as(ctx, docA), pagination.Params{Page: 1, PerPage: 15}, url.Values{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("other clinic does not list it", func(t *testing.T) {
		page, err := svc.List(as(ctx, docB), pagination.Params{Page: 1, PerPage: 15}, url.Values{})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("other clinic is denied the record", func(t *testing.T) {
		_, err := svc.Get(as(ctx, docB), created.ID)
		assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))
	})

	t.Run("unknown id is not found before access", func(t *testing.T) {
		_, err := svc.Get(as(ctx, docB), uuid.New())
		assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
	})

	t.Run("superadmin scoped elsewhere is denied", func(t *testing.T) {
		root := createActor(t, ctx, access.RoleSuperAdmin)
		_, err := svc.Get(scoped(t, ctx, root, clinicB), created.ID)
		assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))

		got, err := svc.Get(as(ctx, root), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("revoked membership loses access", func(t *testing.T) {
		nurse := createActor(t, ctx, "")
		grant(t, ctx, nurse, clinicA, access.RoleNurse)
		_, err := svc.Get(as(ctx, nurse), created.ID)
		require.NoError(t, err)

		require.NoError(t, globalStore.DeleteMembership(ctx, nurse.ID, clinicA))
		_, err = svc.Get(as(ctx, nurse), created.ID)
		assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))
	})
}

func TestEncounters_RejectForeignReferences(t *testing.T) {
	ctx := context.Background()
	clinicA := createClinic(t, ctx, "gamma")
	clinicB := createClinic(t, ctx, "delta")
	admin := createActor(t, ctx, "")
	grant(t, ctx, admin, clinicA, access.RoleAdmin)
	grant(t, ctx, admin, clinicB, access.RoleAdmin)

	patients := patient.NewService(patient.NewRepo(globalPool))
	p, err := patients.Create(scoped(t, ctx, admin, clinicA), &patient.CreateRequest{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	svc := encounter.NewService(encounter.NewRepo(globalPool), refs.NewResolver(globalPool))

	_, err = svc.Create(scoped(t, ctx, admin, clinicB), &encounter.CreateRequest{PatientID: p.ID, Type: "consultation"})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidationFailed, apierror.KindOf(err))

	e, err := svc.Create(scoped(t, ctx, admin, clinicA), &encounter.CreateRequest{PatientID: p.ID, Type: "consultation"})
	require.NoError(t, err)
	assert.Equal(t, clinicA, e.ClinicID)
	assert.Equal(t, encounter.StatusScheduled, e.Status)
}

func TestClinicStatistics(t *testing.T) {
	ctx := context.Background()
	clinicID := createClinic(t, ctx, "epsilon")
	admin := createActor(t, ctx, "")
	grant(t, ctx, admin, clinicID, access.RoleAdmin)
	actx := as(ctx, admin)

	p, err := patient.NewService(patient.NewRepo(globalPool)).Create(actx, &patient.CreateRequest{FirstName: "Alan", LastName: "Turing"})
	require.NoError(t, err)
	now := time.Now()
	_, err = encounter.NewService(encounter.NewRepo(globalPool), refs.NewResolver(globalPool)).
		Create(actx, &encounter.CreateRequest{PatientID: p.ID, Type: "checkup", ScheduledAt: &now})
	require.NoError(t, err)

	stats, err := clinic.NewService(clinic.NewRepo(globalPool)).Statistics(actx, clinicID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Patients)
	assert.Equal(t, 1, stats.Members)
	assert.Equal(t, 1, stats.Encounters)
	assert.Equal(t, 1, stats.EncountersScheduled)
}

func TestSettings_MergeStripsNulls(t *testing.T) {
	ctx := context.Background()
	clinicID := createClinic(t, ctx, "zeta")
	admin := createActor(t, ctx, "")
	grant(t, ctx, admin, clinicID, access.RoleAdmin)
	actx := as(ctx, admin)

	svc := setting.NewService(setting.NewRepo(globalPool))
	_, err := svc.Update(actx, &setting.UpdateRequest{Settings: setting.Settings{"timezone": "UTC", "currency": "EUR"}})
	require.NoError(t, err)

	got, err := svc.Update(actx, &setting.UpdateRequest{Settings: setting.Settings{"currency": nil, "locale": "de"}})
	require.NoError(t, err)
	assert.Equal(t, "UTC", got["timezone"])
	assert.Equal(t, "de", got["locale"])
	assert.NotContains(t, got, "currency")
}
