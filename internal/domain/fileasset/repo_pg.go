package fileasset

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

const fileCols = `id, clinic_id, patient_id, encounter_id, uploaded_by, file_name, content_type, size,
	storage_key, category, checksum, created_at`

var fileFilters = map[string]db.Filter{
	"category":     {Type: db.FilterEqual, Column: "category"},
	"content_type": {Type: db.FilterEqual, Column: "content_type"},
	"patient_id":   {Type: db.FilterUUID, Column: "patient_id"},
	"encounter_id": {Type: db.FilterUUID, Column: "encounter_id"},
	"date_from":    {Type: db.FilterDateFrom, Column: "created_at"},
	"date_to":      {Type: db.FilterDateTo, Column: "created_at"},
}

var fileSorts = map[string]string{
	"created_at": "created_at",
	"file_name":  "file_name",
	"size":       "size",
}

// Create inserts the row; ID and StorageKey are assigned by the caller.
func (r *repoPG) Create(ctx context.Context, f *FileAsset) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO file_assets (
			id, clinic_id, patient_id, encounter_id, uploaded_by, file_name, content_type, size,
			storage_key, category, checksum
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		f.ID, f.ClinicID, f.PatientID, f.EncounterID, f.UploadedBy, f.FileName, f.ContentType, f.Size,
		f.StorageKey, f.Category, f.Checksum,
	).Scan(&f.CreatedAt)
	return db.MapError(err, "File")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*FileAsset, error) {
	f, err := scanFile(r.conn(ctx).QueryRow(ctx, `SELECT `+fileCols+` FROM file_assets WHERE id = $1`, id))
	return f, db.MapError(err, "File")
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM file_assets WHERE id = $1`, id)
	return db.MapError(err, "File")
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, params pagination.Params, filters url.Values) ([]*FileAsset, int, error) {
	q := db.NewQuery("file_assets", fileCols).
		Where("clinic_id = ?", clinicID).
		Search(params.Search, "file_name")
	if err := q.Filter(filters, fileFilters); err != nil {
		return nil, 0, err
	}
	q.OrderBy(params.OrderBy(fileSorts, "created_at DESC"))

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit(), params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*FileAsset
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

func scanFile(row pgx.Row) (*FileAsset, error) {
	var f FileAsset
	err := row.Scan(&f.ID, &f.ClinicID, &f.PatientID, &f.EncounterID, &f.UploadedBy, &f.FileName,
		&f.ContentType, &f.Size, &f.StorageKey, &f.Category, &f.Checksum, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
