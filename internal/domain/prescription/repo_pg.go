package prescription

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

const rxCols = `id, clinic_id, patient_id, encounter_id, doctor_id, medication, dosage, frequency,
	duration, quantity, refills, instructions, status, prescribed_at, created_at, updated_at`

var rxFilters = map[string]db.Filter{
	"status":       {Type: db.FilterEqual, Column: "status"},
	"patient_id":   {Type: db.FilterUUID, Column: "patient_id"},
	"encounter_id": {Type: db.FilterUUID, Column: "encounter_id"},
	"doctor_id":    {Type: db.FilterUUID, Column: "doctor_id"},
	"date_from":    {Type: db.FilterDateFrom, Column: "prescribed_at"},
	"date_to":      {Type: db.FilterDateTo, Column: "prescribed_at"},
}

var rxSorts = map[string]string{
	"prescribed_at": "prescribed_at",
	"medication":    "medication",
	"status":        "status",
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (
			id, clinic_id, patient_id, encounter_id, doctor_id, medication, dosage, frequency,
			duration, quantity, refills, instructions, status, prescribed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		p.ID, p.ClinicID, p.PatientID, p.EncounterID, p.DoctorID, p.Medication, p.Dosage, p.Frequency,
		p.Duration, p.Quantity, p.Refills, p.Instructions, p.Status, p.PrescribedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "Prescription")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanRx(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	return p, db.MapError(err, "Prescription")
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE prescriptions SET
			doctor_id=$2, medication=$3, dosage=$4, frequency=$5, duration=$6, quantity=$7,
			refills=$8, instructions=$9, status=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.DoctorID, p.Medication, p.Dosage, p.Frequency, p.Duration, p.Quantity,
		p.Refills, p.Instructions, p.Status,
	).Scan(&p.UpdatedAt)
	return db.MapError(err, "Prescription")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	return db.MapError(err, "Prescription")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Prescription, int, error) {
	q := db.NewQuery("prescriptions", rxCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "medication", "instructions")
	if err := q.Filter(filters, rxFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(rxSorts, "prescribed_at DESC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanRx(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanRx(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.ClinicID, &p.PatientID, &p.EncounterID, &p.DoctorID, &p.Medication, &p.Dosage,
		&p.Frequency, &p.Duration, &p.Quantity, &p.Refills, &p.Instructions, &p.Status,
		&p.PrescribedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
