package patient

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

const patientCols = `id, clinic_id, medical_record_number, first_name, last_name, date_of_birth,
	gender, phone, email, address, blood_type, allergies, notes, is_active, created_at, updated_at`

var patientFilters = map[string]db.Filter{
	"gender":    {Type: db.FilterEqual, Column: "gender"},
	"is_active": {Type: db.FilterBool, Column: "is_active"},
}

var patientSorts = map[string]string{
	"name":          "last_name",
	"first_name":    "first_name",
	"last_name":     "last_name",
	"date_of_birth": "date_of_birth",
	"created_at":    "created_at",
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (
			id, clinic_id, medical_record_number, first_name, last_name, date_of_birth,
			gender, phone, email, address, blood_type, allergies, notes, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		p.ID, p.ClinicID, p.MedicalRecordNumber, p.FirstName, p.LastName, p.DateOfBirth,
		p.Gender, p.Phone, p.Email, p.Address, p.BloodType, p.Allergies, p.Notes, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "Patient")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	return p, db.MapError(err, "Patient")
}

// Update never writes clinic_id.
func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET
			medical_record_number=$2, first_name=$3, last_name=$4, date_of_birth=$5,
			gender=$6, phone=$7, email=$8, address=$9, blood_type=$10, allergies=$11,
			notes=$12, is_active=$13, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.MedicalRecordNumber, p.FirstName, p.LastName, p.DateOfBirth,
		p.Gender, p.Phone, p.Email, p.Address, p.BloodType, p.Allergies,
		p.Notes, p.IsActive,
	).Scan(&p.UpdatedAt)
	return db.MapError(err, "Patient")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return db.MapError(err, "Patient")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*Patient, int, error) {
	q := db.NewQuery("patients", patientCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "first_name", "last_name", "medical_record_number", "phone", "email")
	if err := q.Filter(filters, patientFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(patientSorts, "last_name ASC, first_name ASC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.ClinicID, &p.MedicalRecordNumber, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.Gender, &p.Phone, &p.Email, &p.Address, &p.BloodType, &p.Allergies, &p.Notes,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
