package validate

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"MediPay/pkg/errors"
)

type sample struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "Acme"}))

	err := Struct(sample{})
	assert.True(t, stderrors.Is(err, errors.InvalidRequest))
	assert.EqualError(t, err, "name is required")

	assert.EqualError(t, Struct(sample{Name: "x", Email: "nope"}), "email must be a valid email address")
	assert.EqualError(t, Struct(sample{Name: "x", Status: "gone"}), "status must be one of [active inactive]")
}
