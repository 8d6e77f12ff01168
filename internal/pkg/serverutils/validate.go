package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags on a request DTO and converts the first
// violation into a 400 AppError.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return NewAppError(400, "validation_failed",
				fmt.Sprintf("%s is %s", first.Field(), first.Tag()), err)
		}
		return NewAppError(400, "validation_failed", "invalid request body", err)
	}
	return nil
}
