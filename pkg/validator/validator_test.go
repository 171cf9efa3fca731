package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestCustomTags(t *testing.T) {
	v := New()

	ok := model.CreateAppointmentRequest{Date: "2026-11-02", Time: "9:00 AM"}
	require.NoError(t, v.Struct(ok))

	bad := model.CreateAppointmentRequest{Date: "02/11/2026", Time: "09:00 AM"}
	fe, found := FirstError(v.Struct(bad))
	require.True(t, found)
	assert.Equal(t, "date", fe.Field)
	assert.Contains(t, fe.Message, "YYYY-MM-DD")

	bad = model.CreateAppointmentRequest{Date: "2026-11-02", Time: "12:30 PM"}
	fe, found = FirstError(v.Struct(bad))
	require.True(t, found)
	assert.Equal(t, "time", fe.Field)
}

func TestMissingDateIsFieldSpecific(t *testing.T) {
	v := New()
	fe, found := FirstError(v.Struct(model.CreateAppointmentRequest{Time: "09:00 AM"}))
	require.True(t, found)
	assert.Equal(t, "date is required", fe.Message)
}

func TestWeekdayTag(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(model.DaySchedule{DayOfWeek: "friday", TimeSlots: []string{"08:00 AM"}}))

	fe, found := FirstError(v.Struct(model.DaySchedule{DayOfWeek: "Caturday"}))
	require.True(t, found)
	assert.Equal(t, "dayOfWeek must be a day of the week", fe.Message)
}

func TestFirstErrorIgnoresOtherErrors(t *testing.T) {
	_, found := FirstError(assert.AnError)
	assert.False(t, found)
}
