package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrMissingFields.WithDetail("pickup_address"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MISSING_FIELDS", body["code"])
	assert.Equal(t, "pickup_address", body["detail"])
	assert.Empty(t, ErrMissingFields.Detail, "base error must not be mutated")
}

func TestWriteError_GenericBecomes500(t *testing.T) {
	rec := httptest.NewRecorder()
	cause := stderrors.New("db down")
	WriteError(rec, fmt.Errorf("wrapped: %w", cause))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestFromError_UnwrapsWrappedAppError(t *testing.T) {
	err := fmt.Errorf("ctx: %w", ErrRateLimitExceeded)
	assert.Same(t, ErrRateLimitExceeded, FromError(err))
}
