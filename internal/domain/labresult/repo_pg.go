package labresult

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

const labCols = `id, clinic_id, patient_id, encounter_id, test_name, test_code, result_value, unit,
	reference_range, status, is_abnormal, performed_at, notes, created_at, updated_at`

var labFilters = map[string]db.Filter{
	"status":       {Type: db.FilterEqual, Column: "status"},
	"test_code":    {Type: db.FilterEqual, Column: "test_code"},
	"patient_id":   {Type: db.FilterUUID, Column: "patient_id"},
	"encounter_id": {Type: db.FilterUUID, Column: "encounter_id"},
	"is_abnormal":  {Type: db.FilterBool, Column: "is_abnormal"},
	"date_from":    {Type: db.FilterDateFrom, Column: "created_at"},
	"date_to":      {Type: db.FilterDateTo, Column: "created_at"},
}

var labSorts = map[string]string{
	"created_at":   "created_at",
	"performed_at": "performed_at",
	"test_name":    "test_name",
	"status":       "status",
}

func (r *repoPG) Create(ctx context.Context, l *LabResult) error {
	l.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_results (
			id, clinic_id, patient_id, encounter_id, test_name, test_code, result_value, unit,
			reference_range, status, is_abnormal, performed_at, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		l.ID, l.ClinicID, l.PatientID, l.EncounterID, l.TestName, l.TestCode, l.ResultValue, l.Unit,
		l.ReferenceRange, l.Status, l.IsAbnormal, l.PerformedAt, l.Notes,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	return db.MapError(err, "Lab result")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabResult, error) {
	l, err := scanLab(r.conn(ctx).QueryRow(ctx, `SELECT `+labCols+` FROM lab_results WHERE id = $1`, id))
	return l, db.MapError(err, "Lab result")
}

func (r *repoPG) Update(ctx context.Context, l *LabResult) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE lab_results SET
			test_name=$2, test_code=$3, result_value=$4, unit=$5, reference_range=$6, status=$7,
			is_abnormal=$8, performed_at=$9, notes=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		l.ID, l.TestName, l.TestCode, l.ResultValue, l.Unit, l.ReferenceRange, l.Status,
		l.IsAbnormal, l.PerformedAt, l.Notes,
	).Scan(&l.UpdatedAt)
	return db.MapError(err, "Lab result")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_results WHERE id = $1`, id)
	return db.MapError(err, "Lab result")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*LabResult, int, error) {
	q := db.NewQuery("lab_results", labCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "test_name", "test_code")
	if err := q.Filter(filters, labFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(labSorts, "created_at DESC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*LabResult
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func scanLab(row pgx.Row) (*LabResult, error) {
	var l LabResult
	err := row.Scan(
		&l.ID, &l.ClinicID, &l.PatientID, &l.EncounterID, &l.TestName, &l.TestCode, &l.ResultValue,
		&l.Unit, &l.ReferenceRange, &l.Status, &l.IsAbnormal, &l.PerformedAt, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
