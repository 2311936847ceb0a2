package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	v.Check(v.CheckStringLength("héllo", 5, 5), "name", "must be five characters")
	v.Check(v.Matches("alice@example.com", EmailRX), "email", "must be a valid email address")
	v.Check(PermittedValue("editor", "admin", "editor"), "role", "must be admin or editor")
	assert.True(t, v.Valid())

	v.Check(false, "name", "first message")
	v.Check(false, "name", "second message")
	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"name": "first message"}, v.Errors)

	err := v.ValidationError()
	assert.Equal(t, ValidationError{Errors: map[string]string{"name": "first message"}}, err)
}
