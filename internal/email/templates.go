package email

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
)

var ErrNoTemplate = errors.New("no email template")

type tmpl struct {
	subject *template.Template
	body    *template.Template
}

func mustTmpl(subject, body string) tmpl {
	return tmpl{
		subject: template.Must(template.New("subject").Parse(subject)),
		body:    template.Must(template.New("body").Parse(body)),
	}
}

var templates = map[string]tmpl{
	"appointment.created": mustTmpl(
		"Appointment confirmed with Dr. {{.DoctorName}}",
		`Hello {{.PatientName}},

Your appointment with Dr. {{.DoctorName}} is booked for {{.Date}} at {{.Time}}.

If you cannot attend, please cancel it from your appointments page.
`),
	"appointment.cancelled": mustTmpl(
		"Appointment cancelled",
		`Hello {{.PatientName}},

Your appointment with Dr. {{.DoctorName}} on {{.Date}} at {{.Time}} has been cancelled.
`),
	"appointment.status_changed": mustTmpl(
		"Appointment {{.Status}}",
		`Hello {{.PatientName}},

Your appointment with Dr. {{.DoctorName}} on {{.Date}} at {{.Time}} is now {{.Status}}.
`),
}

// Render builds the message for the named template.
func Render(name, to string, data interface{}) (Message, error) {
	t, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrNoTemplate, name)
	}
	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s body: %w", name, err)
	}
	return Message{To: to, Subject: subject.String(), Body: body.String()}, nil
}
