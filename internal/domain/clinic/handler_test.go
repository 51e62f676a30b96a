package clinic

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/access/accesstest"
	"github.com/clinicemr/api/internal/platform/response"
)

func newTestServer(f *fixture, actor *access.Actor) *echo.Echo {
	e := echo.New()
	e.JSONSerializer = response.JSONSerializer{}
	e.HTTPErrorHandler = response.ErrorHandler(zerolog.Nop())
	h := NewHandler(f.svc)

	v1 := e.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	if actor != nil {
		api := v1.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.SetRequest(f.access.Request(c.Request(), *actor))
				return next(c)
			}
		})
		h.RegisterRoutes(api, api.Group("", access.ScopeRecordClinic()))
	}
	return e
}

func get(e *echo.Echo, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_PublicClinicProjection(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, nil)

	rec := get(e, "/api/v1/public/clinics/"+f.north.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "North", out.Data["name"])
	for _, hidden := range []string{"is_active", "is_public", "billing", "created_at"} {
		assert.NotContains(t, out.Data, hidden)
	}

	rec = get(e, "/api/v1/public/clinics/"+f.south.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreateClinicNeedsSystemRole(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, &f.admin)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clinics", strings.NewReader(`{"name":"East"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	super := accesstest.SuperAdmin()
	e = newTestServer(f, &super)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/clinics", strings.NewReader(`{"name":"East"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_ListClinicsNoMembership(t *testing.T) {
	f := newFixture()
	stranger := accesstest.Actor()
	e := newTestServer(f, &stranger)

	rec := get(e, "/api/v1/clinics")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "No clinic access")
}

func TestHandler_DeleteWithPatientsIsConflict(t *testing.T) {
	f := newFixture()
	f.repo.patients[f.north.ID] = 1
	e := newTestServer(f, &f.admin)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/clinics/"+f.north.ID.String(), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot delete clinic with existing patients")
}

func TestHandler_ClinicRoutesHonourSelection(t *testing.T) {
	f := newFixture()
	super := accesstest.SuperAdmin()
	e := newTestServer(f, &super)
	target := "/api/v1/clinics/" + f.north.ID.String()

	rec := get(e, target)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(e, target, access.HeaderClinicID, f.south.ID.String())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = get(e, target+"/statistics", access.HeaderClinicID, f.south.ID.String())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The directory itself is not narrowed by a selection.
	rec = get(e, "/api/v1/clinics", access.HeaderClinicID, f.south.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Data.Total)
}
