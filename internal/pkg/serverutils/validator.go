package serverutils

import (
	"fmt"
	"strings"

	"dyor-ai-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into an
// invalid-argument error so the error middleware renders a 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperror.InvalidArgument("invalid request payload")
		}
		fields := make([]string, len(validationErrors))
		for i, fe := range validationErrors {
			fields[i] = fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag())
		}
		return apperror.InvalidArgument("validation failed on: %s", strings.Join(fields, ", "))
	}
	return nil
}
