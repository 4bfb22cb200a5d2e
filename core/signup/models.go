package signup

import (
	"github.com/go-playground/validator/v10"

	"github.com/edupro/schoolportal/core"
)

// NewSignup contains information needed to register a new school.
// Every field is required; validation short-circuits before any gateway call.
type NewSignup struct {
	SchoolName string `json:"school_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

func (ns *NewSignup) Validate(validate *validator.Validate) error {
	ns.SchoolName = core.CleanString(ns.SchoolName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// Credentials is a sign-in request.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}
