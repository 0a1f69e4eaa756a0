package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ValidationError("bad").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, (&Error{Type: TypeNotFound}).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, InternalError("boom", nil).HTTPStatus())
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("prediction failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal: prediction failed: root cause", err.Error())
	assert.Equal(t, "validation: bad", ValidationError("bad").Error())
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	v := ValidationError("bad")
	assert.Same(t, v, AsStructuredError(fmt.Errorf("wrapped: %w", v)))

	plain := AsStructuredError(fmt.Errorf("plain"))
	assert.Equal(t, TypeInternal, plain.Type)
	assert.Equal(t, "internal server error", plain.Message)
}

func runMiddleware(t *testing.T, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, Middleware()(handler)(c)
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec, err := runMiddleware(t, func(c echo.Context) error {
		return ValidationError("field \"review\" is required").WithContext("field", "review")
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "field \"review\" is required", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "review", resp.Context["field"])
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("validation")))
}

func TestMiddlewareWithStandardError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec, err := runMiddleware(t, func(c echo.Context) error {
		return fmt.Errorf("onnx session exploded")
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "onnx session exploded")
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("internal")))
}

func TestMiddlewarePassesEchoErrors(t *testing.T) {
	HTTPErrorsTotal.Reset()

	_, err := runMiddleware(t, func(c echo.Context) error {
		return echo.ErrNotFound
	})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("not_found")))
}

func TestMiddlewareNoError(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWrapHTTPError(t *testing.T) {
	assert.Equal(t, TypeValidation, WrapHTTPError(echo.ErrStatusRequestEntityTooLarge).Type)
	assert.Equal(t, TypeNotFound, WrapHTTPError(echo.ErrMethodNotAllowed).Type)
	assert.Equal(t, TypeInternal, WrapHTTPError(echo.ErrInternalServerError).Type)
	assert.Equal(t, "custom", WrapHTTPError(echo.NewHTTPError(http.StatusBadRequest, "custom")).Message)
}
