package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("clinic")
	require.NotPanics(t, func() { m.MustRegister(reg) })

	m.AppointmentsCreated.Inc()
	m.AppointmentsCreated.Inc()
	m.BookingConflicts.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		if len(f.GetMetric()) > 0 && f.GetMetric()[0].GetCounter() != nil {
			values[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["clinic_appointments_created_total"])
	assert.Equal(t, 1.0, values["clinic_booking_conflicts_total"])
	assert.Equal(t, 0.0, values["clinic_appointments_cancelled_total"])
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New("clinic").MustRegister(prometheus.NewRegistry())
		New("clinic").MustRegister(prometheus.NewRegistry())
	})
}
