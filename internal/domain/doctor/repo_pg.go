package doctor

import (
	"context"
	"net/url"

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

const doctorCols = `id, clinic_id, actor_id, first_name, last_name, specialization, license_number,
	phone, email, is_active, created_at, updated_at`

var doctorFilters = map[string]db.Filter{
	"specialization": {Type: db.FilterEqual, Column: "specialization"},
	"is_active":      {Type: db.FilterBool, Column: "is_active"},
}

var doctorSorts = map[string]string{
	"last_name":      "last_name",
	"first_name":     "first_name",
	"specialization": "specialization",
	"created_at":     "created_at",
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, clinic_id, actor_id, first_name, last_name, specialization,
			license_number, phone, email, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		d.ID, d.ClinicID, d.ActorID, d.FirstName, d.LastName, d.Specialization,
		d.LicenseNumber, d.Phone, d.Email, d.IsActive,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.MapError(err, "Doctor")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	return d, db.MapError(err, "Doctor")
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET first_name=$2, last_name=$3, specialization=$4, license_number=$5,
			phone=$6, email=$7, is_active=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.FirstName, d.LastName, d.Specialization, d.LicenseNumber, d.Phone, d.Email, d.IsActive,
	).Scan(&d.UpdatedAt)
	return db.MapError(err, "Doctor")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return db.MapError(err, "Doctor")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Doctor, int, error) {
	q := db.NewQuery("doctors", doctorCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "first_name", "last_name", "specialization", "license_number")
	if err := q.Filter(filters, doctorFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(doctorSorts, "last_name, first_name"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.ClinicID, &d.ActorID, &d.FirstName, &d.LastName, &d.Specialization,
		&d.LicenseNumber, &d.Phone, &d.Email, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
