package clinic

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicemr/api/internal/platform/db"
	"github.com/clinicemr/api/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const clinicCols = `id, name, slug, address, phone, email, description, is_active, is_public,
	billing, created_at, updated_at`

const publicCols = `id, name, slug, address, phone, email, description`

var clinicSorts = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

func (r *repoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinics (id, name, slug, address, phone, email, description, is_active, is_public, billing)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Address, c.Phone, c.Email, c.Description, c.IsActive, c.IsPublic, c.Billing,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.MapError(err, "Clinic")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, err := scanClinic(r.conn(ctx).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
	return c, db.MapError(err, "Clinic")
}

func (r *repoPG) Update(ctx context.Context, c *Clinic) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE clinics SET
			name=$2, address=$3, phone=$4, email=$5, description=$6,
			is_active=$7, is_public=$8, billing=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Address, c.Phone, c.Email, c.Description, c.IsActive, c.IsPublic, c.Billing,
	).Scan(&c.UpdatedAt)
	return db.MapError(err, "Clinic")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	return db.MapError(err, "Clinic")
}

func (r *repoPG) List(ctx context.Context, ids []uuid.UUID, params pagination.Params) ([]*Clinic, int, error) {
	q := db.NewQuery("clinics", clinicCols).Search(params.Search, "name", "slug", "email")
	if ids != nil {
		q.Where("id = ANY(?)", ids)
	}
	q.OrderBy(params.OrderBy(clinicSorts, "name ASC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CountPatients(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE clinic_id = $1`, id).Scan(&n)
	return n, err
}

func (r *repoPG) Statistics(ctx context.Context, id uuid.UUID) (*Statistics, error) {
	s := Statistics{ClinicID: id}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1),
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1 AND is_active),
			(SELECT COUNT(*) FROM doctors WHERE clinic_id = $1),
			(SELECT COUNT(*) FROM clinic_memberships WHERE clinic_id = $1 AND is_active),
			(SELECT COUNT(*) FROM encounters WHERE clinic_id = $1),
			(SELECT COUNT(*) FROM encounters WHERE clinic_id = $1 AND scheduled_at::date = CURRENT_DATE),
			(SELECT COUNT(*) FROM encounters WHERE clinic_id = $1 AND status = 'scheduled'),
			(SELECT COUNT(*) FROM encounters WHERE clinic_id = $1 AND status = 'completed'),
			(SELECT COUNT(*) FROM prescriptions WHERE clinic_id = $1 AND status = 'active'),
			(SELECT COUNT(*) FROM lab_results WHERE clinic_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM lab_results WHERE clinic_id = $1 AND is_abnormal),
			(SELECT COUNT(*) FROM file_assets WHERE clinic_id = $1),
			(SELECT COALESCE(SUM(size), 0)::bigint FROM file_assets WHERE clinic_id = $1),
			(SELECT COUNT(*) FROM medrep_visits WHERE clinic_id = $1 AND status = 'scheduled' AND visit_at >= NOW())`,
		id,
	).Scan(
		&s.Patients, &s.ActivePatients, &s.Doctors, &s.Members,
		&s.Encounters, &s.EncountersToday, &s.EncountersScheduled, &s.EncountersCompleted,
		&s.ActivePrescriptions, &s.PendingLabResults, &s.AbnormalLabResults,
		&s.Files, &s.FileBytes, &s.UpcomingMedrepVisits,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) ListPublic(ctx context.Context, params pagination.Params) ([]*PublicClinic, int, error) {
	q := db.NewQuery("clinics", publicCols).
		Where("is_active = TRUE AND is_public = TRUE").
		Search(params.Search, "name", "address").
		OrderBy(params.OrderBy(clinicSorts, "name ASC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*PublicClinic
	for rows.Next() {
		p, err := scanPublic(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) GetPublic(ctx context.Context, id uuid.UUID) (*PublicClinic, error) {
	p, err := scanPublic(r.conn(ctx).QueryRow(ctx,
		`SELECT `+publicCols+` FROM clinics WHERE id = $1 AND is_active = TRUE AND is_public = TRUE`, id))
	return p, db.MapError(err, "Clinic")
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Address, &c.Phone, &c.Email, &c.Description,
		&c.IsActive, &c.IsPublic, &c.Billing, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPublic(row pgx.Row) (*PublicClinic, error) {
	var p PublicClinic
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Address, &p.Phone, &p.Email, &p.Description); err != nil {
		return nil, err
	}
	return &p, nil
}
