package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Field names are reported by their json tag.
var v = func() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return val
}()

// FieldError describes one failed rule on one request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Errors is returned by Struct and unwraps to domain.ErrValidation.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field, fe.Rule))
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() error { return domain.ErrValidation }

// Struct validates s using its validate tags.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	out := make(Errors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: fieldPath(fe.Namespace()), Rule: fe.Tag()})
	}
	return out
}

// Field reports a single semantic failure in the same shape as Struct.
func Field(field, rule string) error {
	return Errors{{Field: field, Rule: rule}}
}

// fieldPath drops the root struct name: "RuleInput.channels[0].channel" -> "channels[0].channel".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
