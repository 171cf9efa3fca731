package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var once sync.Once

// Register installs the clinic tags on gin's validator engine and makes
// field errors report json names. Safe to call more than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			return
		}
		install(v)
	})
}

// New returns a standalone validator with the same tags, for code paths
// that do not bind through gin.
func New() *playground.Validate {
	v := playground.New()
	v.SetTagName("binding")
	install(v)
	return v
}

func install(v *playground.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("isodate", isoDate)
	_ = v.RegisterValidation("timeslot", timeSlot)
	_ = v.RegisterValidation("weekday", weekday)
}

func isoDate(fl playground.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

func timeSlot(fl playground.FieldLevel) bool {
	_, err := model.ParseTimeSlot(fl.Field().String())
	return err == nil
}

func weekday(fl playground.FieldLevel) bool {
	_, err := model.ParseWeekday(fl.Field().String())
	return err == nil
}

// FieldError is the first failing field of a binding error.
type FieldError struct {
	Field   string
	Message string
}

// FirstError converts a binding error into a single field-specific message.
// ok is false when err is not a validation error (e.g. malformed JSON).
func FirstError(err error) (FieldError, bool) {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return FieldError{}, false
	}
	fe := verrs[0]
	return FieldError{Field: fe.Field(), Message: message(fe)}, true
}

func message(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "timeslot":
		return fmt.Sprintf("%s must be one of the clinic time slots", field)
	case "weekday":
		return fmt.Sprintf("%s must be a day of the week", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
