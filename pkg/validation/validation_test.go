package validation

import (
	"testing"

	errprocess "smart_cycle_market/pkg/err"

	"github.com/stretchr/testify/assert"
)

type signUp struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

func TestStruct(t *testing.T) {
	ok := signUp{Name: "Ann", Email: "ann@example.com", Password: "Secure#Pass1"}
	assert.NoError(t, Struct(ok))

	tests := []struct {
		name string
		in   signUp
		want string
	}{
		{"missing name", signUp{Email: "ann@example.com", Password: "Secure#Pass1"}, "name is missing!"},
		{"short name", signUp{Name: "An", Email: "ann@example.com", Password: "Secure#Pass1"}, "name must be at least 3 characters long!"},
		{"bad email", signUp{Name: "Ann", Email: "nope", Password: "Secure#Pass1"}, "Invalid email!"},
		{"weak password", signUp{Name: "Ann", Email: "ann@example.com", Password: "password"}, "Password is too simple!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			assert.Equal(t, 422, errprocess.HTTPStatus(err))
			assert.Equal(t, tt.want, errprocess.PublicMessage(err))
		})
	}
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("peerId", "0b5b0c4e-8f0a-4a57-9d0c-5a3a9c1b2f10", "required,uuid"))
	err := Var("peerId", "abc", "required,uuid")
	assert.Equal(t, "Invalid peerId!", errprocess.PublicMessage(err))
}
