package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errs = append(errs, &element)
		}
	}
	return errs
}

// FieldErrors flattens validation failures into field-to-message pairs for the
// fieldErrors response body.
func FieldErrors(errs []*ErrorResponse) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		msg := "failed on '" + e.Tag + "'"
		if e.Value != "" {
			msg += "=" + e.Value
		}
		fields[e.FailedField] = msg
	}
	return fields
}
