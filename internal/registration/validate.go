package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Code classifies a validation failure.
type Code string

const (
	CodeRequired      Code = "REQUIRED"
	CodeTooShort      Code = "TOO_SHORT"
	CodeInvalidFormat Code = "INVALID_FORMAT"
	CodeMismatch      Code = "MISMATCH"
)

// Minimum lengths, counted in characters.
const (
	MinNameLen     = 3
	MinPhoneLen    = 15
	MaxPhoneLen    = 15
	MinPasswordLen = 6
)

// ErrInvalid matches any *ValidationError via errors.Is.
var ErrInvalid = errors.New("registration: invalid record")

// FieldError is the single displayed failure of one field.
type FieldError struct {
	Field   Field
	Code    Code
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field.Key(), e.Message)
}

// ErrorMap holds at most one error per field. An empty map means valid.
type ErrorMap map[Field]FieldError

// Valid reports whether the map holds no errors.
func (m ErrorMap) Valid() bool { return len(m) == 0 }

// Fields returns the failing fields in declaration order.
func (m ErrorMap) Fields() []Field {
	var out []Field
	for _, f := range Fields() {
		if _, ok := m[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Message returns the message for f, or "" when f passed.
func (m ErrorMap) Message(f Field) string {
	return m[f].Message
}

// Messages returns the map keyed by field key, the shape shown to users.
func (m ErrorMap) Messages() map[string]string {
	out := make(map[string]string, len(m))
	for f, fe := range m {
		out[f.Key()] = fe.Message
	}
	return out
}

// ValidationError carries the ErrorMap of a failed validation.
type ValidationError struct {
	Errors ErrorMap
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, f := range e.Errors.Fields() {
		parts = append(parts, e.Errors[f].Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrInvalid) hold for validation failures.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Rule is one constraint on a field. Check reports whether the record
// satisfies it; it must only read the record.
type Rule struct {
	Code    Code
	Message string
	Check   func(Record) bool
}

type fieldRules struct {
	field Field
	rules []Rule
}

// constraints evaluates tag-style checks. *validator.Validate is safe for
// concurrent use once built.
var constraints = validator.New()

// tag builds a rule that applies a validator tag to the value of f.
func tag(f Field, t string, code Code, msg string) Rule {
	return Rule{
		Code:    code,
		Message: msg,
		Check: func(r Record) bool {
			return constraints.Var(r.Get(f), t) == nil
		},
	}
}

// equals builds a rule requiring f to equal other, compared as written.
func equals(f, other Field, code Code, msg string) Rule {
	return Rule{
		Code:    code,
		Message: msg,
		Check: func(r Record) bool {
			return constraints.VarWithValue(r.Get(f), r.Get(other), "eqcsfield") == nil
		},
	}
}

// schema lists each field with its rules in priority order. "required"
// always comes first, so an empty field reports REQUIRED only.
var schema = []fieldRules{
	{FieldName, []Rule{
		tag(FieldName, "required", CodeRequired, "Name is required"),
		tag(FieldName, fmt.Sprintf("min=%d", MinNameLen), CodeTooShort, "Name must be at least 3 characters"),
	}},
	{FieldEmail, []Rule{
		tag(FieldEmail, "required", CodeRequired, "E-mail is required"),
		tag(FieldEmail, "email", CodeInvalidFormat, "Enter a valid e-mail"),
	}},
	{FieldPhone, []Rule{
		tag(FieldPhone, "required", CodeRequired, "Phone is required"),
		tag(FieldPhone, fmt.Sprintf("min=%d", MinPhoneLen), CodeTooShort, "Phone number is incomplete"),
		tag(FieldPhone, fmt.Sprintf("max=%d", MaxPhoneLen), CodeInvalidFormat, "Enter a valid phone number"),
	}},
	{FieldPassword, []Rule{
		tag(FieldPassword, "required", CodeRequired, "Password is required"),
		tag(FieldPassword, fmt.Sprintf("min=%d", MinPasswordLen), CodeTooShort, "Password must be at least 6 characters"),
	}},
	{FieldPasswordConfirmation, []Rule{
		tag(FieldPasswordConfirmation, "required", CodeRequired, "Password confirmation is required"),
		equals(FieldPasswordConfirmation, FieldPassword, CodeMismatch, "Passwords do not match"),
	}},
}

// Validate checks every field of r and returns the first failing rule of
// each field. It never stops at the first failing field and never modifies r.
func Validate(r Record) ErrorMap {
	errs := make(ErrorMap)
	for _, fr := range schema {
		if fe, failed := apply(r, fr); failed {
			errs[fr.field] = fe
		}
	}
	return errs
}

// ValidateErr is Validate for callers that want an error value.
// It returns nil or a *ValidationError.
func ValidateErr(r Record) error {
	if errs := Validate(r); !errs.Valid() {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidateField returns the error for a single field, if any.
func ValidateField(r Record, f Field) (FieldError, bool) {
	for _, fr := range schema {
		if fr.field == f {
			return apply(r, fr)
		}
	}
	return FieldError{}, false
}

func apply(r Record, fr fieldRules) (FieldError, bool) {
	for _, rule := range fr.rules {
		if !rule.Check(r) {
			return FieldError{Field: fr.field, Code: rule.Code, Message: rule.Message}, true
		}
	}
	return FieldError{}, false
}
