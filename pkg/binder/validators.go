package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	usernameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// usernameValidator allows letters, digits, dots, dashes and underscores, and
// requires the first character to be a letter or digit.
func usernameValidator(fl validator.FieldLevel) bool {
	return usernameRE.MatchString(fl.Field().String())
}
