// Package registration holds the sign-up record, its validation rules and the
// form state transitions driven by user input.
package registration

import "fmt"

// Field identifies one input of the registration form.
// Declaration order is display order and error order.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldPhone
	FieldPassword
	FieldPasswordConfirmation
)

var fieldKeys = [...]string{
	FieldName:                 "name",
	FieldEmail:                "email",
	FieldPhone:                "phone",
	FieldPassword:             "password",
	FieldPasswordConfirmation: "passwordConfirmation",
}

var fieldLabels = [...]string{
	FieldName:                 "Full name",
	FieldEmail:                "E-mail",
	FieldPhone:                "Phone",
	FieldPassword:             "Password",
	FieldPasswordConfirmation: "Confirm password",
}

// Fields returns every field in declaration order.
func Fields() []Field {
	return []Field{FieldName, FieldEmail, FieldPhone, FieldPassword, FieldPasswordConfirmation}
}

// Key returns the stable field name used in error maps and JSON output.
func (f Field) Key() string {
	if !f.valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldKeys[f]
}

// Label returns the human-readable field label.
func (f Field) Label() string {
	if !f.valid() {
		return f.Key()
	}
	return fieldLabels[f]
}

func (f Field) String() string { return f.Key() }

// Secret reports whether the field holds a password and must be masked.
func (f Field) Secret() bool {
	return f == FieldPassword || f == FieldPasswordConfirmation
}

func (f Field) valid() bool {
	return f >= FieldName && f <= FieldPasswordConfirmation
}

// ParseField returns the field for key, as produced by Field.Key.
func ParseField(key string) (Field, error) {
	for _, f := range Fields() {
		if fieldKeys[f] == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("registration: unknown field %q", key)
}

// Record is the candidate registration. All values are raw text; the phone
// value is expected to be masked already.
type Record struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// Get returns the value stored for f.
func (r Record) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldPassword:
		return r.Password
	case FieldPasswordConfirmation:
		return r.PasswordConfirmation
	default:
		return ""
	}
}

// With returns a copy of r with f set to value. The receiver is not modified.
func (r Record) With(f Field, value string) Record {
	switch f {
	case FieldName:
		r.Name = value
	case FieldEmail:
		r.Email = value
	case FieldPhone:
		r.Phone = value
	case FieldPassword:
		r.Password = value
	case FieldPasswordConfirmation:
		r.PasswordConfirmation = value
	}
	return r
}

// Empty reports whether every field is blank.
func (r Record) Empty() bool {
	return r == Record{}
}
