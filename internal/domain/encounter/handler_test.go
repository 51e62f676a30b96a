package encounter

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
	"github.com/clinicemr/api/internal/platform/response"
)

func newTestServer(f *fixture, actor access.Actor) *echo.Echo {
	e := echo.New()
	e.JSONSerializer = response.JSONSerializer{}
	e.HTTPErrorHandler = response.ErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(f.access.Request(c.Request(), actor))
			return next(c)
		}
	})
	NewHandler(f.svc).RegisterRoutes(api.Group("", access.RequireClinic()), api.Group("", access.ScopeRecordClinic()))
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_CreateEncounter(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.deskA)

	rec := do(e, http.MethodPost, "/api/v1/encounters", `{"patient_id":"`+f.patientA.String()+`","type":"consultation"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "scheduled", data["status"])
	assert.Equal(t, f.clinicA.String(), data["clinic_id"])
}

func TestHandler_CreateForeignPatientIs422(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.deskA)

	rec := do(e, http.MethodPost, "/api/v1/encounters", `{"patient_id":"`+f.patientB.String()+`","type":"consultation"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "patient_id")
}

func TestHandler_CreateMissingFields(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.deskA)

	rec := do(e, http.MethodPost, "/api/v1/encounters", `{"type":"house_call"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "patient_id")
	assert.Contains(t, errs, "type")
}

func TestHandler_PatchStatus(t *testing.T) {
	f := newFixture()
	enc := f.seed(f.clinicA, StatusScheduled)
	e := newTestServer(f, f.nurseA)

	rec := do(e, http.MethodPatch, "/api/v1/encounters/"+enc.ID.String()+"/status", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Encounter status updated successfully", decode(t, rec)["message"])

	rec = do(e, http.MethodPatch, "/api/v1/encounters/"+enc.ID.String()+"/status", `{"status":"no_show"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_GetForeignEncounter(t *testing.T) {
	f := newFixture()
	enc := f.seed(f.clinicB, StatusScheduled)
	e := newTestServer(f, f.physA)

	rec := do(e, http.MethodGet, "/api/v1/encounters/"+enc.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "No access to this encounter", decode(t, rec)["message"])
}

func TestHandler_GetMalformedID(t *testing.T) {
	f := newFixture()
	e := newTestServer(f, f.physA)

	rec := do(e, http.MethodGet, "/api/v1/encounters/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Encounter not found", decode(t, rec)["message"])
}
