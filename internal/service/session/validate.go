package session

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"minishop/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// checkInput runs struct validation and folds failures into ErrInvalidInput.
func checkInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" "+validationMessage(fe))
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
