package medrep

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

const visitCols = `id, clinic_id, doctor_id, rep_name, company, products, visit_at, status, notes,
	created_at, updated_at`

var visitFilters = map[string]db.Filter{
	"status":    {Type: db.FilterEqual, Column: "status"},
	"company":   {Type: db.FilterEqual, Column: "company"},
	"doctor_id": {Type: db.FilterUUID, Column: "doctor_id"},
	"date_from": {Type: db.FilterDateFrom, Column: "visit_at"},
	"date_to":   {Type: db.FilterDateTo, Column: "visit_at"},
}

var visitSorts = map[string]string{
	"visit_at": "visit_at",
	"company":  "company",
	"rep_name": "rep_name",
	"status":   "status",
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medrep_visits (id, clinic_id, doctor_id, rep_name, company, products, visit_at, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		v.ID, v.ClinicID, v.DoctorID, v.RepName, v.Company, v.Products, v.VisitAt, v.Status, v.Notes,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return db.MapError(err, "Medrep visit")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM medrep_visits WHERE id = $1`, id))
	return v, db.MapError(err, "Medrep visit")
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medrep_visits SET
			doctor_id=$2, rep_name=$3, company=$4, products=$5, visit_at=$6, status=$7, notes=$8,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		v.ID, v.DoctorID, v.RepName, v.Company, v.Products, v.VisitAt, v.Status, v.Notes,
	).Scan(&v.UpdatedAt)
	return db.MapError(err, "Medrep visit")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medrep_visits WHERE id = $1`, id)
	return db.MapError(err, "Medrep visit")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Visit, int, error) {
	q := db.NewQuery("medrep_visits", visitCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "rep_name", "company", "notes")
	if err := q.Filter(filters, visitFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(visitSorts, "visit_at DESC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.ClinicID, &v.DoctorID, &v.RepName, &v.Company, &v.Products, &v.VisitAt,
		&v.Status, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
