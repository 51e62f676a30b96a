// Package fileasset stores uploaded clinical documents. Metadata is kept in
// Postgres and content in a blobstore.Store.
package fileasset

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileAsset struct {
	ID          uuid.UUID  `json:"id"`
	ClinicID    uuid.UUID  `json:"clinic_id"`
	PatientID   *uuid.UUID `json:"patient_id"`
	EncounterID *uuid.UUID `json:"encounter_id"`
	UploadedBy  *uuid.UUID `json:"uploaded_by"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	StorageKey  string     `json:"-"`
	Category    string     `json:"category"`
	Checksum    string     `json:"checksum"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (f *FileAsset) OwningClinicID() uuid.UUID { return f.ClinicID }

// UploadRequest carries the multipart form fields sent alongside the file.
type UploadRequest struct {
	PatientID   string `form:"patient_id" validate:"omitempty,uuid"`
	EncounterID string `form:"encounter_id" validate:"omitempty,uuid"`
	Category    string `form:"category" validate:"omitempty,oneof=lab_report imaging prescription consent identification other"`
}

// Upload is the validated file part of an upload.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// URLResponse is returned for temporary download links.
type URLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func optionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// storageKey places content under its clinic so a bucket listing never
// mixes tenants.
func storageKey(clinicID, id uuid.UUID, name string) string {
	return "clinics/" + clinicID.String() + "/" + id.String() + "/" + safeName(name)
}

func safeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if clean == "" || clean == "." || clean == ".." || clean == "/" {
		return "file"
	}
	return clean
}
