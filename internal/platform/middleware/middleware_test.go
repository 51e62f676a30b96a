package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicemr/api/internal/platform/apierror"
)

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	var rid string
	h := RequestID()(func(c echo.Context) error {
		rid, _ = c.Get("request_id").(string)
		return ok(c)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rid) != 26 {
		t.Errorf("expected a ULID, got %q", rid)
	}
	if rec.Header().Get(RequestIDHeader) != rid {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()

	_ = RequestID()(ok)(e.NewContext(req, rec))
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesUnsafe(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "id with spaces")
	rec := httptest.NewRecorder()

	_ = RequestID()(ok)(e.NewContext(req, rec))
	if rec.Header().Get(RequestIDHeader) == "id with spaces" {
		t.Error("expected unsafe id to be replaced")
	}
}

func TestLogger_StatusFromError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients/1", nil), httptest.NewRecorder())
	c.Set("request_id", "rid-1")

	var ctxLogged bool
	h := Logger(logger)(func(c echo.Context) error {
		ctxLogged = zerolog.Ctx(c.Request().Context()).GetLevel() != zerolog.Disabled
		return apierror.NoAccessTo("patient")
	})
	_ = h(c)

	if !ctxLogged {
		t.Error("expected request logger in context")
	}
	line := buf.String()
	if !strings.Contains(line, `"status":403`) || !strings.Contains(line, `"request_id":"rid-1"`) {
		t.Errorf("unexpected log line %s", line)
	}
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := Recovery(zerolog.Nop())(func(echo.Context) error { panic("nil map") })(c)
	if apierror.KindOf(err) != apierror.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "Internal server error" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}))
	e.GET("/", ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	}
	if fmt.Sprint(codes) != "[200 200 429]" {
		t.Errorf("unexpected status sequence %v", codes)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other clients must have their own bucket, got %d", rec.Code)
	}
}

func TestLimiterStore_Sweep(t *testing.T) {
	now := time.Now()
	s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	s.now = func() time.Time { return now }
	s.get("a")
	now = now.Add(2 * time.Minute)
	s.get("b")
	s.sweep()
	if s.size() != 1 {
		t.Errorf("expected idle limiter to be removed, %d left", s.size())
	}
}

func TestBodyLimit(t *testing.T) {
	mw := BodyLimit("10", "1K")
	read := func(c echo.Context) error {
		if _, err := io.ReadAll(c.Request().Body); err != nil {
			return err
		}
		return ok(c)
	}

	tests := []struct {
		name        string
		body        string
		contentType string
		chunked     bool
		wantErr     bool
	}{
		{"under limit", "small", echo.MIMEApplicationJSON, false, false},
		{"declared too large", strings.Repeat("x", 11), echo.MIMEApplicationJSON, false, true},
		{"undeclared too large", strings.Repeat("x", 11), echo.MIMEApplicationJSON, true, true},
		{"multipart uses upload limit", strings.Repeat("x", 100), echo.MIMEMultipartForm + "; boundary=x", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, tt.contentType)
			if tt.chunked {
				req.ContentLength = -1
			}
			c := echo.New().NewContext(req, httptest.NewRecorder())
			err := mw(read)(c)
			var he *echo.HTTPError
			if tt.wantErr {
				if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
					t.Fatalf("expected 413, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"512":  512,
		"2K":   2 << 10,
		"2KB":  2 << 10,
		"10M":  10 << 20,
		"1g":   1 << 30,
		"":     1 << 20,
		"junk": 1 << 20,
	}
	for in, want := range tests {
		if got := parseLimit(in); got != want {
			t.Errorf("parseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = SecurityHeaders()(ok)(c)

	for _, kv := range securityHeaders {
		if rec.Header().Get(kv[0]) != kv[1] {
			t.Errorf("%s: expected %q, got %q", kv[0], kv[1], rec.Header().Get(kv[0]))
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := RequestTimeout(time.Millisecond, nil)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return fmt.Errorf("query: %w", c.Request().Context().Err())
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %v", err)
	}

	skipped := RequestTimeout(time.Millisecond, func(echo.Context) bool { return true })
	err = skipped(func(c echo.Context) error {
		if _, has := c.Request().Context().Deadline(); has {
			t.Error("skipped route must not get a deadline")
		}
		return nil
	})(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()), httptest.NewRecorder()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAudit(t *testing.T) {
	var got []AuditEntry
	rec := AuditRecorderFunc(func(e AuditEntry) error {
		got = append(got, e)
		return nil
	})
	c := echo.New().NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/patients/abc", nil), httptest.NewRecorder())
	c.Set("actor_id", "actor-1")
	c.Set("clinic_id", "clinic-1")

	_ = Audit(zerolog.Nop(), rec)(func(echo.Context) error { return apierror.NoAccessTo("patient") })(c)

	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
	e := got[0]
	if e.Action != "delete" || e.Resource != "patients" || e.RecordID != "abc" || e.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.ActorID != "actor-1" || e.ClinicID != "clinic-1" {
		t.Errorf("expected actor and clinic, got %+v", e)
	}
}
