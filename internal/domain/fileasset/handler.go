package fileasset

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicemr/api/internal/platform/apierror"
	"github.com/clinicemr/api/internal/platform/blobstore"
	"github.com/clinicemr/api/internal/platform/response"
	"github.com/clinicemr/api/internal/platform/validate"
	"github.com/clinicemr/api/pkg/pagination"
)

type Handler struct {
	svc     *Service
	maxSize int64
}

// NewHandler returns a handler rejecting uploads larger than maxSize bytes.
func NewHandler(svc *Service, maxSize int64) *Handler {
	return &Handler{svc: svc, maxSize: maxSize}
}

func (h *Handler) RegisterRoutes(list, record *echo.Group) {
	list.GET("/files", h.ListFiles)
	list.POST("/files", h.UploadFile)
	record.GET("/files/:id", h.GetFile)
	record.GET("/files/:id/url", h.GetFileURL)
	record.GET("/files/:id/download", h.DownloadFile)
	record.DELETE("/files/:id", h.DeleteFile)
}

func (h *Handler) ListFiles(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), pagination.FromContext(c), c.QueryParams())
	if err != nil {
		return err
	}
	return response.OK(c, "Files retrieved successfully", page)
}

func (h *Handler) UploadFile(c echo.Context) error {
	var req UploadRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return apierror.Field("file", "The file field is required.")
		}
		return apierror.Field("file", "The file failed to upload.")
	}
	if fh.Size > h.maxSize {
		return apierror.Field("file", fmt.Sprintf("The file may not be greater than %d bytes.", h.maxSize))
	}
	contentType, err := blobstore.NormalizeContentType(fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return apierror.Field("file", "The file type is not allowed.")
	}
	src, err := fh.Open()
	if err != nil {
		return apierror.Field("file", "The file failed to upload.")
	}
	defer src.Close()

	f, err := h.svc.Upload(c.Request().Context(), &req, Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: contentType,
		Content:     src,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "File uploaded successfully", f)
}

func (h *Handler) GetFile(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	f, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "File retrieved successfully", f)
}

func (h *Handler) GetFileURL(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.URL(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "File URL generated successfully", u)
}

func (h *Handler) DownloadFile(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	f, rc, err := h.svc.Open(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName}))
	return c.Stream(http.StatusOK, f.ContentType, rc)
}

func (h *Handler) DeleteFile(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.OK(c, "File deleted successfully", nil)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.NotFound("File")
	}
	return id, nil
}
