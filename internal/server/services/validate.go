package services

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/smartscan/admingate/internal/common"
)

var validate = validator.New()

// validationMessages maps a failing field and tag to the message shown to
// the client. An empty field matches any field. Entries are tried in order,
// so missing credentials win over format checks when several fields fail.
var validationMessages = []struct {
	field string
	tag   string
	msg   string
}{
	{"Email", "required", "Email and password are required"},
	{"Password", "required", "Email and password are required"},
	{"Name", "required", "Name is required"},
	{"", "email", "Invalid email format"},
	{"", "max", "Input too long"},
}

// validateStruct runs the struct tags of s and converts the first failure
// into a *common.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &common.ValidationError{Message: "Invalid request"}
	}

	for _, m := range validationMessages {
		for _, fe := range fieldErrs {
			if fe.Tag() == m.tag && (m.field == "" || fe.Field() == m.field) {
				return &common.ValidationError{Message: m.msg}
			}
		}
	}
	return &common.ValidationError{Message: "Invalid request"}
}
