package booking

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinTickets     = 1
	MaxTickets     = 6
	MinAdvanceDays = 2

	DateLayout = "2006-01-02"
)

// Notice is shown to the user when a submission is rejected.
const Notice = "Please fill in all required fields and ensure Origin and Destination are different and number of tickets is valid."

// Field names a form field. Values match the JSON names used by the HTTP surface.
type Field string

const (
	FieldOrigin       Field = "origin"
	FieldDestination  Field = "destination"
	FieldMobileNumber Field = "mobileNumber"
	FieldEventDate    Field = "eventDate"
	FieldNumTickets   Field = "numTickets"
)

// Fields lists every form field in display order.
var Fields = []Field{FieldOrigin, FieldDestination, FieldMobileNumber, FieldEventDate, FieldNumTickets}

// Form is the state of the booking form. Empty Origin or Destination means
// the station is not selected yet.
type Form struct {
	Origin       string    `json:"origin" validate:"required"`
	Destination  string    `json:"destination" validate:"required,nefield=Origin"`
	MobileNumber string    `json:"mobileNumber" validate:"required,mobile"`
	EventDate    time.Time `json:"eventDate" validate:"required,bookable"`
	NumTickets   int       `json:"numTickets" validate:"required,min=1,max=6"`
}

// quotable reports whether the form has enough to ask for a fare.
func (f Form) quotable() bool {
	return f.Origin != "" && f.Destination != "" && f.Origin != f.Destination &&
		f.NumTickets >= MinTickets && f.NumTickets <= MaxTickets
}

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

// ValidMobile reports whether s is exactly ten ASCII digits.
func ValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   Field  `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned by Submit when the form is not bookable.
type ValidationError struct {
	Notice string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, string(f.Field)+": "+f.Message)
	}
	return fmt.Sprintf("invalid booking form (%s)", strings.Join(parts, "; "))
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field Field) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

type formValidator struct {
	validate *validator.Validate
	minDate  func() time.Time
}

func newFormValidator(minDate func() time.Time) (*formValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("registering mobile validation: %w", err)
	}

	err = v.RegisterValidation("bookable", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		earliest := minDate()
		return !dateOf(d, earliest.Location()).Before(earliest)
	})
	if err != nil {
		return nil, fmt.Errorf("registering bookable validation: %w", err)
	}

	return &formValidator{validate: v, minDate: minDate}, nil
}

// mustFormValidator is like newFormValidator but panics if the custom rules
// cannot be registered.
func mustFormValidator(minDate func() time.Time) *formValidator {
	fv, err := newFormValidator(minDate)
	if err != nil {
		panic(err)
	}
	return fv
}

func (fv *formValidator) check(f Form) *ValidationError {
	err := fv.validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{
			Notice: Notice,
			Fields: []FieldError{{Field: FieldOrigin, Rule: "invalid", Message: err.Error()}},
		}
	}

	out := &ValidationError{Notice: Notice}
	for _, fe := range verrs {
		field := Field(fe.Field())
		out.Fields = append(out.Fields, FieldError{
			Field:   field,
			Rule:    fe.Tag(),
			Message: fv.message(field, fe.Tag()),
		})
	}
	return out
}

func (fv *formValidator) message(field Field, rule string) string {
	switch rule {
	case "required":
		return fieldLabel(field) + " is required"
	case "nefield":
		return "Destination must be different from origin"
	case "mobile":
		return "Mobile number must be exactly 10 digits"
	case "bookable":
		return "Event date must be on or after " + fv.minDate().Format(DateLayout)
	case "min", "max":
		return fmt.Sprintf("Number of tickets must be between %d and %d", MinTickets, MaxTickets)
	}
	return fieldLabel(field) + " is invalid"
}

func fieldLabel(f Field) string {
	switch f {
	case FieldOrigin:
		return "Origin"
	case FieldDestination:
		return "Destination"
	case FieldMobileNumber:
		return "Mobile number"
	case FieldEventDate:
		return "Event date"
	case FieldNumTickets:
		return "Number of tickets"
	}
	return string(f)
}

// dateOf returns midnight in loc of the calendar day t names in its own zone.
func dateOf(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
