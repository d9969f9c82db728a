package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Name     string `json:"name" validate:"required,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Internal string `json:"-"`
}

func TestStructValid(t *testing.T) {
	v := New()
	errs := v.Struct(account{Name: "Ana", Email: "ana@x.com"})
	assert.Empty(t, errs)
	assert.NoError(t, errs.Err())
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()
	errs := v.Struct(account{Name: "", Email: "not-an-email", Password: "abc"})

	require.Len(t, errs, 3)
	assert.Equal(t, "The name field is required.", errs["name"])
	assert.Equal(t, "The email field must be a valid email address.", errs["email"])
	assert.Equal(t, "The password field must be at least 6 characters.", errs["password"])
}

func TestStructMaxLength(t *testing.T) {
	v := New()
	errs := v.Struct(account{Name: "abcdefghijk", Email: "a@b.co"})
	assert.Equal(t, "The name field must not be greater than 10 characters.", errs["name"])
}

func TestMessage(t *testing.T) {
	v := New()
	assert.Equal(t, "The email has already been taken.", v.Message("unique", "email"))
	assert.Equal(t, "The password field is required.", v.Message("required", "password"))
	assert.Equal(t, "The picture field must not be greater than 5120 kilobytes.", v.Message("maxsize", "picture", "5120"))
}

func TestErrorsBehaveAsError(t *testing.T) {
	errs := Errors{}
	errs.Add("email", "first")
	errs.Add("email", "second")
	errs.Add("name", "missing")

	err := errs.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Equal(t, "validation failed: email: first; name: missing", err.Error())

	var target Errors
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "first", target["email"])
}

func TestNewRegistersEveryMessage(t *testing.T) {
	var v *Validator
	require.NotPanics(t, func() { v = New() })
	for tag := range messages {
		assert.NotEqual(t, "The field field is invalid.", v.Message(tag, "field", "1"), tag)
	}
}
