package validator

import (
	"courtbook/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		return domain.TimeOfDay(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("datestamp", func(fl validator.FieldLevel) bool {
		return domain.DateStamp(fl.Field().String()).Valid()
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		errors[err.Field()] = err.Tag()
	}
	return errors
}
