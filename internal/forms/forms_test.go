package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	valid := []string{
		"ada@example.com",
		"first.last+jobs@mail.example.co.uk",
		"  padded@example.org  ",
	}
	for _, v := range valid {
		assert.NoError(t, Email(v), v)
	}

	invalid := []string{
		"plainaddress",
		"@example.com",
		"ada@",
		"ada@localhost",
		"ada@example..com",
		"Ada Lovelace <ada@example.com>",
		"ada@exa mple.com",
		"ada@-example.com",
	}
	for _, v := range invalid {
		assert.ErrorIs(t, Email(v), ErrInvalidEmail, v)
	}

	assert.ErrorIs(t, Email("   "), ErrRequired)
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("Sup3rSecret", 8))
	assert.ErrorIs(t, Password("", 8), ErrRequired)

	err := Password("short1A", 8)
	var weak *WeakPasswordError
	require.True(t, errors.As(err, &weak))
	assert.Equal(t, []string{"at least 8 characters"}, weak.Missing)

	err = Password("alllowercase", 8)
	require.True(t, errors.As(err, &weak))
	assert.Equal(t, []string{"an uppercase letter", "a number"}, weak.Missing)

	// zero falls back to the default
	assert.Error(t, Password("Ab1", 0))
}

func TestMatch(t *testing.T) {
	assert.NoError(t, Match("Sup3rSecret", "Sup3rSecret"))
	assert.ErrorIs(t, Match("Sup3rSecret", "sup3rsecret"), ErrMismatch)
	assert.ErrorIs(t, Match("Sup3rSecret", ""), ErrRequired)
}

func TestLoginForm(t *testing.T) {
	errs := LoginForm{Email: "not-an-email", Password: ""}.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "Email must be a valid email address", errs.For(FieldEmail))
	assert.Equal(t, "Password is required", errs.For(FieldPassword))
	assert.Error(t, errs.Err())

	errs = LoginForm{Email: "ada@example.com", Password: "x"}.Validate()
	assert.NoError(t, errs.Err())
}

func TestRecoveryForm(t *testing.T) {
	assert.NoError(t, RecoveryForm{Email: "ada@example.com"}.Validate().Err())
	assert.Error(t, RecoveryForm{Email: "ada"}.Validate().Err())
}

func TestResetForm(t *testing.T) {
	errs := ResetForm{Password: "Sup3rSecret", Confirm: "Sup3rSecreT", MinLength: 8}.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "Passwords do not match", errs.For(FieldConfirmPassword))
	assert.Empty(t, errs.For(FieldPassword))

	errs = ResetForm{Password: "Sup3rSecret", Confirm: "Sup3rSecret"}.Validate()
	assert.NoError(t, errs.Err())
}
