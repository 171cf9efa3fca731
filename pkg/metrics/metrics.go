package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the clinic's domain counters. Collectors are created
// unregistered; call MustRegister once per process.
type Metrics struct {
	AppointmentsCreated   prometheus.Counter
	BookingConflicts      prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	StatusChanges         *prometheus.CounterVec

	// Worker
	EventsProcessed prometheus.Counter
	EmailsSent      prometheus.Counter
	EmailsFailed    *prometheus.CounterVec
	EmailLatency    prometheus.Histogram
}

func New(namespace string) *Metrics {
	return &Metrics{
		AppointmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Total number of appointments booked",
		}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected because the slot was taken",
		}),
		AppointmentsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_cancelled_total",
			Help:      "Total number of appointments cancelled",
		}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_status_changes_total",
			Help:      "Appointment status transitions by target status",
		}, []string{"status"}),
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "events_processed_total",
			Help:      "Total number of appointment events consumed",
		}),
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "emails_sent_total",
			Help:      "Total number of notification emails delivered",
		}),
		EmailsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "emails_failed_total",
			Help:      "Total number of notification emails that failed",
		}, []string{"reason"}),
		EmailLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "email_send_duration_seconds",
			Help:      "Time spent delivering notification emails",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.AppointmentsCreated,
		m.BookingConflicts,
		m.AppointmentsCancelled,
		m.StatusChanges,
		m.EventsProcessed,
		m.EmailsSent,
		m.EmailsFailed,
		m.EmailLatency,
	)
}
