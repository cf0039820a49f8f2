package registration

import (
	"errors"

	"github.com/smileynet/signup/internal/phone"
)

// ErrSubmitInFlight is returned when a submit starts while another is pending.
var ErrSubmitInFlight = errors.New("registration: submission already in progress")

// Form is the state behind the registration form. Transitions return a new
// Form and leave the receiver untouched.
type Form struct {
	Record     Record
	Errors     ErrorMap
	Submitting bool
	Succeeded  bool
}

// NewForm returns an empty form.
func NewForm() Form {
	return Form{Errors: ErrorMap{}}
}

// Change stores value in f. Phone input is masked on the way in.
// Errors and the success flag stay until the next submit.
func (fm Form) Change(f Field, value string) Form {
	if f == FieldPhone {
		value = phone.Format(value)
	}
	fm.Record = fm.Record.With(f, value)
	return fm
}

// BeginSubmit validates the record and marks the form as submitting.
// On validation failure the errors are stored and a *ValidationError is
// returned; the form is not left submitting.
func (fm Form) BeginSubmit() (Form, error) {
	if fm.Submitting {
		return fm, ErrSubmitInFlight
	}
	fm.Succeeded = false

	errs := Validate(fm.Record)
	fm.Errors = errs
	if !errs.Valid() {
		return fm, &ValidationError{Errors: errs}
	}

	fm.Submitting = true
	return fm, nil
}

// CompleteSubmit records a successful submission and resets the record.
func (fm Form) CompleteSubmit() Form {
	return Form{Errors: ErrorMap{}, Succeeded: true}
}

// FailSubmit ends an in-flight submission that the sender could not finish.
// The record is kept so the user can retry.
func (fm Form) FailSubmit() Form {
	fm.Submitting = false
	return fm
}
