package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          FieldRequired("date"),
		http.StatusNotFound:            NotFound("doctor", nil),
		http.StatusConflict:            Conflict("already booked", nil),
		http.StatusUnauthorized:        Unauthorized("", nil),
		http.StatusForbidden:           Forbidden(""),
		http.StatusInternalServerError: Internal(fmt.Errorf("db down")),
	}
	for status, err := range cases {
		assert.Equal(t, status, StatusCode(err), err.Error())
	}
	assert.Equal(t, http.StatusInternalServerError, StatusCode(fmt.Errorf("plain")))
}

func TestWrappedAppErrorIsFound(t *testing.T) {
	err := fmt.Errorf("create appointment: %w", Conflict("taken", nil))
	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, StatusCode(err))
}

func TestFieldRequiredMessage(t *testing.T) {
	err := FieldRequired("date")
	assert.Equal(t, "date is required", err.Error())
	assert.Equal(t, "date", err.Field)
}
