// Package audit persists the access trail produced by middleware.Audit.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicemr/api/internal/platform/middleware"
)

// Logger writes one access_audit_log row per request.
type Logger struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ middleware.AuditRecorder = (*Logger)(nil)

func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool, timeout: 2 * time.Second}
}

// RecordAccess inserts entry. It runs after the response is written, so it
// uses its own deadline rather than the request context.
func (l *Logger) RecordAccess(entry middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	_, err := l.pool.Exec(ctx, `
		INSERT INTO access_audit_log (
			recorded_at, request_id, actor_id, clinic_id, resource, record_id,
			action, method, path, ip_address, status_code
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		entry.Timestamp, entry.RequestID, optionalID(entry.ActorID), optionalID(entry.ClinicID),
		entry.Resource, truncate(entry.RecordID, 64), entry.Action, entry.Method, entry.Path,
		entry.IPAddress, entry.StatusCode,
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// optionalID returns nil for empty or malformed ids so they store as NULL.
func optionalID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
