package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsOrdered(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "0001_init", ms[0].Version)
	assert.Equal(t, "0003_inventory", ms[2].Version)
	assert.Contains(t, ms[0].SQL, "appointments_active_slot_idx")
	assert.Contains(t, ms[0].SQL, "WHERE status <> 'Cancelled'")
}
