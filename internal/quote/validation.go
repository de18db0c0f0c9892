package quote

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	validate.RegisterValidation("symbol", validateSymbol)
	validate.RegisterValidation("price", validatePrice)
}

func validateSymbol(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return ValidSymbol(s)
}

func validatePrice(fl validator.FieldLevel) bool {
	p, ok := fl.Field().Interface().(float64)
	if !ok {
		return false
	}
	return p > 0
}

// Validate enforces the structural invariants: symbol, name and currency
// non-empty, price strictly positive. The first violation is reported as a
// ValidationError naming the offending field.
func (q Quote) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:  strings.ToLower(fe.Field()),
			Reason: "failed " + fe.Tag() + " check",
		}
	}
	return err
}
