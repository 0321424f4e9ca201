// Package forms validates the fields of the auth steps before anything is
// sent to the server.
package forms

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// DefaultMinPasswordLength is the minimum password length when none is configured.
const DefaultMinPasswordLength = 8

// Field names used as keys in Errors.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

var (
	ErrRequired     = errors.New("is required")
	ErrInvalidEmail = errors.New("must be a valid email address")
	ErrMismatch     = errors.New("passwords do not match")
)

// domainPattern requires at least one dot and no empty labels.
var domainPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)+$`)

// Email validates an email address: required, bare address (no display
// name), and a dotted domain.
func Email(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return ErrRequired
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Name != "" || addr.Address != v {
		return ErrInvalidEmail
	}
	at := strings.LastIndex(v, "@")
	if at <= 0 || !domainPattern.MatchString(v[at+1:]) {
		return ErrInvalidEmail
	}
	return nil
}

// Required fails on empty or whitespace-only values.
func Required(v string) error {
	if strings.TrimSpace(v) == "" {
		return ErrRequired
	}
	return nil
}

// WeakPasswordError lists the strength rules a password misses.
type WeakPasswordError struct {
	Missing []string
}

func (e *WeakPasswordError) Error() string {
	return "must contain " + strings.Join(e.Missing, ", ")
}

// Password checks the strength rules: minLen characters, one uppercase, one
// lowercase and one digit.
func Password(v string, minLen int) error {
	if v == "" {
		return ErrRequired
	}
	if minLen <= 0 {
		minLen = DefaultMinPasswordLength
	}

	var upper, lower, digit bool
	for _, r := range v {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	var missing []string
	if len([]rune(v)) < minLen {
		missing = append(missing, fmt.Sprintf("at least %d characters", minLen))
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a number")
	}
	if len(missing) > 0 {
		return &WeakPasswordError{Missing: missing}
	}
	return nil
}

// Match checks that the confirmation equals the password exactly.
func Match(password, confirm string) error {
	if confirm == "" {
		return ErrRequired
	}
	if password != confirm {
		return ErrMismatch
	}
	return nil
}

// FieldError is a validation failure on one field.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %v", label(e.Field), e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// Message is the inline text shown under the field.
func (e FieldError) Message() string {
	if errors.Is(e.Err, ErrMismatch) {
		return "Passwords do not match"
	}
	return e.Error()
}

func label(field string) string {
	switch field {
	case FieldEmail:
		return "Email"
	case FieldPassword:
		return "Password"
	case FieldConfirmPassword:
		return "Confirm password"
	}
	return field
}

// Errors collects field errors in the order fields were checked.
type Errors []FieldError

// Add records err against field when err is non-nil.
func (e *Errors) Add(field string, err error) {
	if err != nil {
		*e = append(*e, FieldError{Field: field, Err: err})
	}
}

// For returns the inline message for a field, or "".
func (e Errors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message()
		}
	}
	return ""
}

// Err returns nil when there are no errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// LoginForm is the login entry step.
type LoginForm struct {
	Email    string
	Password string
}

// Validate checks email syntax and a non-empty password.
func (f LoginForm) Validate() Errors {
	var errs Errors
	errs.Add(FieldEmail, Email(f.Email))
	errs.Add(FieldPassword, Required(f.Password))
	return errs
}

// RecoveryForm is the recovery entry step.
type RecoveryForm struct {
	Email string
}

// Validate checks email syntax.
func (f RecoveryForm) Validate() Errors {
	var errs Errors
	errs.Add(FieldEmail, Email(f.Email))
	return errs
}

// ResetForm is the password set step.
type ResetForm struct {
	Password  string
	Confirm   string
	MinLength int
}

// Validate checks the strength rules and the confirmation.
func (f ResetForm) Validate() Errors {
	var errs Errors
	errs.Add(FieldPassword, Password(f.Password, f.MinLength))
	errs.Add(FieldConfirmPassword, Match(f.Password, f.Confirm))
	return errs
}
