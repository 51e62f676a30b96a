package validate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicemr/api/internal/platform/apierror"
)

type item struct {
	Drug string `json:"drug" validate:"required"`
}

type sampleRequest struct {
	Name   string `json:"name" validate:"required,max=10"`
	Email  string `json:"email" validate:"omitempty,email"`
	Gender string `json:"gender" validate:"omitempty,oneof=male female other"`
	Items  []item `json:"items" validate:"dive"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(&sampleRequest{Name: "Ada", Email: "ada@example.com", Gender: "female"})
	assert.NoError(t, err)
}

func TestStruct_FieldMessages(t *testing.T) {
	err := Struct(&sampleRequest{Email: "not-an-email", Gender: "x", Items: []item{{}}})
	require.Error(t, err)

	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.KindValidationFailed, apiErr.Kind)
	assert.Equal(t, []string{"The name field is required."}, apiErr.Fields["name"])
	assert.Equal(t, []string{"The email must be a valid email address."}, apiErr.Fields["email"])
	assert.Contains(t, apiErr.Fields["gender"][0], "male, female, other")
	assert.Contains(t, apiErr.Fields, "items[0].drug")
}

func TestStruct_MaxLengthMessage(t *testing.T) {
	err := Struct(&sampleRequest{Name: strings.Repeat("x", 11)})
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "The name may not be greater than 10 characters.", apiErr.Fields["name"][0])
}

func TestBind_MalformedBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var dst sampleRequest
	err := Bind(c, &dst)
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidationFailed, apierror.KindOf(err))
}

func TestBind_ValidBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var dst sampleRequest
	require.NoError(t, Bind(c, &dst))
	assert.Equal(t, "Ada", dst.Name)
}
