package utils

import (
	"errors"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
	"teamroster/apperr"
)

var validate = validator.New()

// ValidateStruct runs the `validate` tags on s and folds every failure into a
// single ValidationError message.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.ErrValidation, "invalid request", err)
	}

	var messages []string
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, field+" must be at least "+fe.Param()+" characters")
		case "max":
			messages = append(messages, field+" must be at most "+fe.Param()+" characters")
		case "oneof":
			messages = append(messages, field+" must be one of "+fe.Param())
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return apperr.Validation(strings.Join(messages, ", "))
}

// ValidateEmail checks the address format.
func ValidateEmail(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return apperr.Wrap(apperr.ErrValidation, "email must be a valid email", err)
	}
	return nil
}
