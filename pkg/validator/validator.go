// Package validator runs struct tag rules and turns failures into messages
// that can be shown to API clients as they are.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// FieldError is one rejected field, named by its JSON key.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// FieldErrors lists every rejected field of a payload.
type FieldErrors []FieldError

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "invalid request payload"
	}
	messages := make([]string, len(f))
	for i, fe := range f {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// ByField maps each JSON field onto its first failure message.
func (f FieldErrors) ByField() map[string]string {
	out := make(map[string]string, len(f))
	for _, fe := range f {
		if _, seen := out[fe.Field]; !seen {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// ValidateStruct applies the `validate` tags of s. Rule failures come back as FieldErrors.
func ValidateStruct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var raw validator.ValidationErrors
	if !errors.As(err, &raw) {
		return err
	}
	failures := make(FieldErrors, 0, len(raw))
	for _, fe := range raw {
		failures = append(failures, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: describe(fe.Field(), fe.Tag(), fe.Param()),
		})
	}
	return failures
}

// AsAppError converts a ValidateStruct failure into a VALIDATION_ERROR carrying
// the per-field reasons. Other errors become a generic validation error.
func AsAppError(err error) *apperrors.AppError {
	var failures FieldErrors
	if errors.As(err, &failures) {
		return apperrors.NewValidation(failures.Error()).WithFields(failures.ByField())
	}
	return apperrors.NewValidation("invalid request payload").WithInternal(err)
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		for _, r := range domainRules {
			if err := validate.RegisterValidation(r.tag, r.check); err != nil {
				panic("validator: register " + r.tag + ": " + err.Error())
			}
		}
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
