package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

func TestWrapMapsDriverErrors(t *testing.T) {
	assert.NoError(t, wrap(nil, "noop"))

	assert.ErrorIs(t, wrap(sql.ErrNoRows, "get user"), repository.ErrNotFound)

	unique := &pq.Error{Code: pqUniqueViolation, Constraint: "appointments_active_slot_idx"}
	err := wrap(fmt.Errorf("exec: %w", unique), "create appointment")
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "create appointment")

	fk := &pq.Error{Code: pqForeignKeyViolation}
	assert.ErrorIs(t, wrap(fk, "create appointment"), repository.ErrNotFound)

	other := errors.New("connection reset")
	err = wrap(other, "list doctors")
	assert.ErrorIs(t, err, other)
	assert.EqualError(t, err, "failed to list doctors: connection reset")
}
