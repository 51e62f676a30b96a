package fileasset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/access/accesstest"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/blobstore"
	"github.com/clinicemr/api/internal/platform/response"
	"github.com/clinicemr/api/pkg/pagination"
)

type mockRepo struct {
	store     map[uuid.UUID]*FileAsset
	createErr error
}

func (m *mockRepo) Create(_ context.Context, f *FileAsset) error {
	if m.createErr != nil {
		return m.createErr
	}
	f.CreatedAt = time.Now()
	cp := *f
	m.store[f.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*FileAsset, error) {
	f, ok := m.store[id]
	if !ok {
		return nil, apierror.NotFound("File")
	}
	cp := *f
	return &cp, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, clinicID uuid.UUID, _ pagination.Params, _ url.Values) ([]*FileAsset, int, error) {
	var out []*FileAsset
	for _, f := range m.store {
		if f.ClinicID == clinicID {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

type fixture struct {
	repo     *mockRepo
	blobs    *blobstore.MemoryStore
	svc      *Service
	access   *accesstest.Store
	clinicA  uuid.UUID
	clinicB  uuid.UUID
	patientA uuid.UUID
	patientB uuid.UUID
	nurse    access.Actor
	admin    access.Actor
	adminB   access.Actor
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &mockRepo{store: make(map[uuid.UUID]*FileAsset)},
		blobs:    blobstore.NewMemoryStore(),
		clinicA:  uuid.New(),
		clinicB:  uuid.New(),
		patientA: uuid.New(),
		patientB: uuid.New(),
		nurse:    accesstest.Actor(),
		admin:    accesstest.Actor(),
		adminB:   accesstest.Actor(),
	}
	f.svc = NewService(f.repo, f.blobs, refs.Static{f.patientA: f.clinicA, f.patientB: f.clinicB}, 15*time.Minute)
	f.access = accesstest.NewStore(f.clinicA, f.clinicB)
	f.access.Grant(f.nurse, f.clinicA, access.RoleNurse)
	f.access.Grant(f.admin, f.clinicA, access.RoleAdmin)
	f.access.Grant(f.adminB, f.clinicB, access.RoleAdmin)
	return f
}

func (f *fixture) ctx(a access.Actor) context.Context {
	return f.access.Context(context.Background(), a)
}

func (f *fixture) server(actor access.Actor) *echo.Echo {
	e := echo.New()
	e.JSONSerializer = response.JSONSerializer{}
	e.HTTPErrorHandler = response.ErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(f.access.Request(c.Request(), actor))
			return next(c)
		}
	})
	NewHandler(f.svc, 1024).RegisterRoutes(api.Group("", access.RequireClinic()), api.Group("", access.ScopeRecordClinic()))
	return e
}

func multipartBody(t *testing.T, fields map[string]string, name, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if name != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, e *echo.Echo, fields map[string]string, name, contentType string, content []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	body, ct := multipartBody(t, fields, name, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (f *fixture) seed(t *testing.T, actor access.Actor) *FileAsset {
	t.Helper()
	fa, err := f.svc.Upload(f.ctx(actor), &UploadRequest{Category: "lab_report"}, Upload{
		Name: "cbc.pdf", Size: 5, ContentType: "application/pdf", Content: strings.NewReader("%PDF-"),
	})
	require.NoError(t, err)
	return fa
}

func TestUploadFile(t *testing.T) {
	f := newFixture()
	rec, out := upload(t, f.server(f.nurse), map[string]string{"patient_id": f.patientA.String(), "category": "imaging"},
		"scan.png", "image/png", []byte("png-bytes"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := out["data"].(map[string]interface{})
	assert.Equal(t, f.clinicA.String(), data["clinic_id"])
	assert.Equal(t, "imaging", data["category"])
	assert.EqualValues(t, 9, data["size"])
	assert.NotContains(t, data, "storage_key")
	assert.Equal(t, 1, f.blobs.Len())
}

func TestUploadRejectsContentType(t *testing.T) {
	f := newFixture()
	rec, out := upload(t, f.server(f.nurse), nil, "run.sh", "application/x-sh", []byte("#!/bin/sh"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["errors"], "file")
	assert.Equal(t, 0, f.blobs.Len())
}

func TestUploadRejectsOversize(t *testing.T) {
	f := newFixture()
	rec, _ := upload(t, f.server(f.nurse), nil, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadMissingFile(t *testing.T) {
	f := newFixture()
	rec, out := upload(t, f.server(f.nurse), map[string]string{"category": "other"}, "", "", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["errors"], "file")
}

func TestUploadForeignPatient(t *testing.T) {
	f := newFixture()
	rec, out := upload(t, f.server(f.nurse), map[string]string{"patient_id": f.patientB.String()},
		"scan.png", "image/png", []byte("png"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["errors"], "patient_id")
	assert.Equal(t, 0, f.blobs.Len())
}

func TestUploadRollsBackBlobOnInsertFailure(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("insert failed")

	_, err := f.svc.Upload(f.ctx(f.nurse), &UploadRequest{}, Upload{
		Name: "a.txt", Size: 2, ContentType: "text/plain", Content: strings.NewReader("hi"),
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestDownloadStreamsContent(t *testing.T) {
	f := newFixture()
	fa := f.seed(t, f.nurse)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+fa.ID.String()+"/download", nil)
	rec := httptest.NewRecorder()
	f.server(f.nurse).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "cbc.pdf")
	assert.Equal(t, "%PDF-", rec.Body.String())
}

func TestURLForForeignFileDenied(t *testing.T) {
	f := newFixture()
	fa := f.seed(t, f.adminB)

	_, err := f.svc.URL(f.ctx(f.nurse), fa.ID)
	assert.Contains(t, err.Error(), "No access to this file")

	u, err := f.svc.URL(f.ctx(f.adminB), fa.ID)
	require.NoError(t, err)
	assert.Contains(t, u.URL, f.clinicB.String())
	assert.False(t, u.ExpiresAt.IsZero())
}

func TestDeleteRemovesContent(t *testing.T) {
	f := newFixture()
	fa := f.seed(t, f.nurse)

	err := f.svc.Delete(f.ctx(f.nurse), fa.ID)
	assert.Contains(t, err.Error(), "Missing permission: files.delete")

	require.NoError(t, f.svc.Delete(f.ctx(f.admin), fa.ID))
	assert.Empty(t, f.repo.store)
	_, _, err = f.blobs.Open(context.Background(), fa.StorageKey)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "report.pdf", safeName("../../report.pdf"))
	assert.Equal(t, "x_y.png", safeName(`C:\tmp\x y.png`))
	assert.Equal(t, "file", safeName(".."))
}
