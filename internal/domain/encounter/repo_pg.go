package encounter

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

const encCols = `id, clinic_id, patient_id, doctor_id, type, status, scheduled_at, started_at,
	completed_at, chief_complaint, diagnosis, notes, created_at, updated_at`

var encounterFilters = map[string]db.Filter{
	"status":     {Type: db.FilterEqual, Column: "status"},
	"type":       {Type: db.FilterEqual, Column: "type"},
	"patient_id": {Type: db.FilterUUID, Column: "patient_id"},
	"doctor_id":  {Type: db.FilterUUID, Column: "doctor_id"},
	"date_from":  {Type: db.FilterDateFrom, Column: "scheduled_at"},
	"date_to":    {Type: db.FilterDateTo, Column: "scheduled_at"},
}

var encounterSorts = map[string]string{
	"scheduled_at": "scheduled_at",
	"status":       "status",
	"type":         "type",
	"created_at":   "created_at",
}

func (r *repoPG) Create(ctx context.Context, enc *Encounter) error {
	enc.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO encounters (
			id, clinic_id, patient_id, doctor_id, type, status, scheduled_at,
			started_at, completed_at, chief_complaint, diagnosis, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		enc.ID, enc.ClinicID, enc.PatientID, enc.DoctorID, enc.Type, enc.Status, enc.ScheduledAt,
		enc.StartedAt, enc.CompletedAt, enc.ChiefComplaint, enc.Diagnosis, enc.Notes,
	).Scan(&enc.CreatedAt, &enc.UpdatedAt)
	return db.MapError(err, "Encounter")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	enc, err := scanEnc(r.conn(ctx).QueryRow(ctx, `SELECT `+encCols+` FROM encounters WHERE id = $1`, id))
	return enc, db.MapError(err, "Encounter")
}

// Update never writes clinic_id or patient_id.
func (r *repoPG) Update(ctx context.Context, enc *Encounter) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE encounters SET
			doctor_id=$2, type=$3, status=$4, scheduled_at=$5, started_at=$6, completed_at=$7,
			chief_complaint=$8, diagnosis=$9, notes=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		enc.ID, enc.DoctorID, enc.Type, enc.Status, enc.ScheduledAt, enc.StartedAt, enc.CompletedAt,
		enc.ChiefComplaint, enc.Diagnosis, enc.Notes,
	).Scan(&enc.UpdatedAt)
	return db.MapError(err, "Encounter")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM encounters WHERE id = $1`, id)
	return db.MapError(err, "Encounter")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Encounter, int, error) {
	q := db.NewQuery("encounters", encCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "chief_complaint", "diagnosis")
	if err := q.Filter(filters, encounterFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(encounterSorts, "scheduled_at DESC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var encs []*Encounter
	for rows.Next() {
		e, err := scanEnc(rows)
		if err != nil {
			return nil, 0, err
		}
		encs = append(encs, e)
	}
	return encs, total, rows.Err()
}

func scanEnc(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(
		&e.ID, &e.ClinicID, &e.PatientID, &e.DoctorID, &e.Type, &e.Status, &e.ScheduledAt,
		&e.StartedAt, &e.CompletedAt, &e.ChiefComplaint, &e.Diagnosis, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
