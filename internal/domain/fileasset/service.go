package fileasset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/blobstore"
	"github.com/clinicemr/api/pkg/pagination"
)

const resource = "file"

type Service struct {
	repo   Repository
	blobs  blobstore.Store
	refs   refs.Resolver
	urlTTL time.Duration
	now    func() time.Time
}

func NewService(repo Repository, blobs blobstore.Store, resolver refs.Resolver, urlTTL time.Duration) *Service {
	return &Service{repo: repo, blobs: blobs, refs: resolver, urlTTL: urlTTL, now: time.Now}
}

func (s *Service) List(ctx context.Context, params pagination.Params, filters url.Values) (*pagination.Page[*FileAsset], error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.FilesView)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, clinicID, params, filters)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, params), nil
}

// Upload stores the content and then records it. When the row cannot be
// written the stored content is removed again.
func (s *Service) Upload(ctx context.Context, req *UploadRequest, up Upload) (*FileAsset, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	clinicID, err := g.Require(ctx, access.FilesUpload)
	if err != nil {
		return nil, err
	}
	f := &FileAsset{
		ID:          uuid.New(),
		ClinicID:    clinicID,
		PatientID:   optionalID(req.PatientID),
		EncounterID: optionalID(req.EncounterID),
		FileName:    up.Name,
		ContentType: up.ContentType,
		Category:    req.Category,
	}
	if f.Category == "" {
		f.Category = "other"
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Patient, "patient_id", f.PatientID); err != nil {
		return nil, err
	}
	if err := refs.SameClinic(ctx, s.refs, clinicID, refs.Encounter, "encounter_id", f.EncounterID); err != nil {
		return nil, err
	}
	actorID := g.Actor().ID
	f.UploadedBy = &actorID
	f.StorageKey = storageKey(clinicID, f.ID, up.Name)

	obj, err := s.blobs.Put(ctx, f.StorageKey, up.Content, up.Size, up.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store file content: %w", err)
	}
	f.Size = obj.Size
	f.Checksum = obj.SHA256

	if err := s.repo.Create(ctx, f); err != nil {
		if derr := s.blobs.Delete(ctx, f.StorageKey); derr != nil {
			zerolog.Ctx(ctx).Error().Err(derr).Str("storage_key", f.StorageKey).Msg("remove orphaned file content")
		}
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*FileAsset, error) {
	return s.load(ctx, id, access.FilesView)
}

// URL issues a temporary link to the file content.
func (s *Service) URL(ctx context.Context, id uuid.UUID) (*URLResponse, error) {
	f, err := s.load(ctx, id, access.FilesView)
	if err != nil {
		return nil, err
	}
	link, err := s.blobs.URL(ctx, f.StorageKey, s.urlTTL)
	if err != nil {
		return nil, s.mapBlobError(err)
	}
	return &URLResponse{URL: link, ExpiresAt: s.now().Add(s.urlTTL).UTC()}, nil
}

// Open returns the file content. The caller closes the reader.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*FileAsset, io.ReadCloser, error) {
	f, err := s.load(ctx, id, access.FilesView)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.blobs.Open(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, s.mapBlobError(err)
	}
	return f, rc, nil
}

// Delete removes the record first; content left behind by a failed blob
// delete is logged, not reported to the caller.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	f, err := s.load(ctx, id, access.FilesDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, f.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("storage_key", f.StorageKey).Msg("remove file content")
	}
	return nil
}

func (s *Service) mapBlobError(err error) error {
	if errors.Is(err, blobstore.ErrNotFound) {
		return apierror.NotFound("File content")
	}
	return err
}

func (s *Service) load(ctx context.Context, id uuid.UUID, perm access.Permission) (*FileAsset, error) {
	g, err := access.Current(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeRecord(ctx, f, perm, resource); err != nil {
		return nil, err
	}
	return f, nil
}
