package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func TestErrorBody(t *testing.T) {
	status, body := ErrorBody(apperrors.FieldRequired("date"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "date is required", body.Error)
	assert.Equal(t, "date", body.Field)

	status, body = ErrorBody(fmt.Errorf("wrapped: %w", apperrors.Conflict("taken", nil)))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "taken", body.Message)

	status, body = ErrorBody(apperrors.Internal(fmt.Errorf("dial tcp: refused")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Message)

	status, _ = ErrorBody(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestErrorBodyFromValidator(t *testing.T) {
	err := validator.New().Struct(model.CreateAppointmentRequest{Time: "09:00 AM"})
	status, body := ErrorBody(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "date is required", body.Message)
	assert.Equal(t, "date", body.Field)
}
