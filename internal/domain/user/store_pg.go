package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/auth"
	"github.com/clinicemr/api/internal/platform/db"
	"github.com/clinicemr/api/pkg/pagination"
)

// Store is the Postgres implementation of Repository, access.Store,
// access.RoleLister and auth.AccountStore.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ Repository        = (*Store)(nil)
	_ access.Store      = (*Store)(nil)
	_ access.RoleLister = (*Store)(nil)
	_ auth.AccountStore = (*Store)(nil)
)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, s.pool)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, s.pool, fn)
}

const actorCols = `id, email, name, is_active, COALESCE(system_role, ''), active_clinic_id`

func scanActor(row pgx.Row, extra ...interface{}) (access.Actor, error) {
	var a access.Actor
	dest := append([]interface{}{&a.ID, &a.Email, &a.Name, &a.Active, &a.SystemRole, &a.ActiveClinicID}, extra...)
	err := row.Scan(dest...)
	return a, err
}

func (s *Store) GetActor(ctx context.Context, id uuid.UUID) (access.Actor, error) {
	a, err := scanActor(s.conn(ctx).QueryRow(ctx, `SELECT `+actorCols+` FROM actors WHERE id = $1`, id))
	return a, db.MapError(err, "User")
}

func (s *Store) FindActorByEmail(ctx context.Context, email string) (access.Actor, error) {
	a, err := scanActor(s.conn(ctx).QueryRow(ctx, `SELECT `+actorCols+` FROM actors WHERE lower(email) = lower($1)`, email))
	return a, db.MapError(err, "User")
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	var acct auth.Account
	a, err := scanActor(s.conn(ctx).QueryRow(ctx,
		`SELECT `+actorCols+`, password_hash FROM actors WHERE lower(email) = lower($1)`, email), &acct.PasswordHash)
	if err != nil {
		return auth.Account{}, db.MapError(err, "User")
	}
	acct.Actor = a
	return acct, nil
}

func (s *Store) CreateActor(ctx context.Context, n NewActor) (access.Actor, error) {
	var systemRole interface{}
	if n.SystemRole != "" {
		systemRole = n.SystemRole
	}
	a, err := scanActor(s.conn(ctx).QueryRow(ctx, `
		INSERT INTO actors (id, email, name, password_hash, system_role)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING `+actorCols,
		uuid.New(), n.Email, n.Name, n.PasswordHash, systemRole))
	return a, db.MapError(err, "User")
}

func (s *Store) SetActiveClinic(ctx context.Context, actorID, clinicID uuid.UUID) error {
	_, err := s.conn(ctx).Exec(ctx,
		`UPDATE actors SET active_clinic_id = $2, updated_at = NOW() WHERE id = $1`, actorID, clinicID)
	return db.MapError(err, "User")
}

func (s *Store) RecordLogin(ctx context.Context, actorID uuid.UUID) error {
	_, err := s.conn(ctx).Exec(ctx, `UPDATE actors SET last_login_at = NOW() WHERE id = $1`, actorID)
	return db.MapError(err, "User")
}

// ListMemberships returns every membership of the actor, active or not,
// with the role resolved from the roles table.
func (s *Store) ListMemberships(ctx context.Context, actorID uuid.UUID) ([]access.Membership, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT m.actor_id, m.clinic_id, c.name, m.is_active, m.assigned_at,
		       r.name, r.scope, r.description, r.permissions
		FROM clinic_memberships m
		JOIN clinics c ON c.id = m.clinic_id
		JOIN roles r ON r.name = m.role
		WHERE m.actor_id = $1
		ORDER BY m.assigned_at`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []access.Membership
	for rows.Next() {
		var m access.Membership
		var raw access.RawRole
		if err := rows.Scan(&m.ActorID, &m.ClinicID, &m.ClinicName, &m.Active, &m.AssignedAt,
			&raw.Name, &raw.Scope, &raw.Description, &raw.Permissions); err != nil {
			return nil, err
		}
		role, err := raw.Parse()
		if err != nil {
			return nil, err
		}
		m.Role = role
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, name string) (access.Role, error) {
	var raw access.RawRole
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT name, scope, description, permissions FROM roles WHERE name = $1`, name,
	).Scan(&raw.Name, &raw.Scope, &raw.Description, &raw.Permissions)
	if err != nil {
		return access.Role{}, db.MapError(err, "Role")
	}
	return raw.Parse()
}

func (s *Store) ListRawRoles(ctx context.Context) ([]access.RawRole, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT name, scope, description, permissions FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []access.RawRole
	for rows.Next() {
		var raw access.RawRole
		if err := rows.Scan(&raw.Name, &raw.Scope, &raw.Description, &raw.Permissions); err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

func (s *Store) ListRoles(ctx context.Context) ([]access.Role, error) {
	return access.VerifyRoles(ctx, s)
}

// UpsertRoles writes the role definitions, replacing existing rows of the
// same name.
func (s *Store) UpsertRoles(ctx context.Context, roles []access.Role) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, r := range roles {
			perms := make([]string, len(r.Permissions))
			for i, p := range r.Permissions {
				perms[i] = string(p)
			}
			_, err := s.conn(ctx).Exec(ctx, `
				INSERT INTO roles (name, scope, description, permissions)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (name) DO UPDATE SET
					scope = EXCLUDED.scope, description = EXCLUDED.description,
					permissions = EXCLUDED.permissions, updated_at = NOW()`,
				r.Name, string(r.Scope), r.Description, perms)
			if err != nil {
				return fmt.Errorf("upsert role %q: %w", r.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) ClinicExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clinics WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

const memberTable = `clinic_memberships m JOIN actors a ON a.id = m.actor_id`

const memberCols = `a.id, a.email, a.name, a.is_active, m.role, m.is_active, m.assigned_at, a.last_login_at`

var memberSorts = map[string]string{
	"name":        "a.name",
	"email":       "a.email",
	"role":        "m.role",
	"assigned_at": "m.assigned_at",
}

func (s *Store) ListMembers(ctx context.Context, clinicID uuid.UUID, params pagination.Params) ([]*Member, int, error) {
	q := db.NewQuery(memberTable, memberCols).
		Where("m.clinic_id = ?", clinicID).
		Search(params.Search, "a.name", "a.email")
	q.OrderBy(params.OrderBy(memberSorts, "a.name"))

	var total int
	if err := s.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (s *Store) GetMember(ctx context.Context, clinicID, actorID uuid.UUID) (*Member, error) {
	m, err := scanMember(s.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM `+memberTable+` WHERE m.clinic_id = $1 AND m.actor_id = $2`, clinicID, actorID))
	return m, db.MapError(err, "User")
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.IsActive, &m.Role, &m.MembershipActive,
		&m.AssignedAt, &m.LastLoginAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) AddMembership(ctx context.Context, actorID, clinicID uuid.UUID, role string) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO clinic_memberships (actor_id, clinic_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (actor_id, clinic_id) DO UPDATE SET
			role = EXCLUDED.role, is_active = TRUE, assigned_at = NOW(), updated_at = NOW()
		WHERE clinic_memberships.is_active = FALSE`,
		actorID, clinicID, role)
	if err != nil {
		return db.MapError(err, "Membership")
	}
	if tag.RowsAffected() == 0 {
		return apierror.Conflict("User is already a member of this clinic")
	}
	return nil
}

func (s *Store) UpdateMembershipRole(ctx context.Context, actorID, clinicID uuid.UUID, role string) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE clinic_memberships SET role = $3, updated_at = NOW()
		WHERE actor_id = $1 AND clinic_id = $2`, actorID, clinicID, role)
	if err != nil {
		return db.MapError(err, "Membership")
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("User")
	}
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, actorID, clinicID uuid.UUID) error {
	_, err := s.conn(ctx).Exec(ctx,
		`DELETE FROM clinic_memberships WHERE actor_id = $1 AND clinic_id = $2`, actorID, clinicID)
	return db.MapError(err, "Membership")
}
