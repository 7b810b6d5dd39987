// Package validation wraps go-playground/validator with a shared instance
// and readable error messages.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Error lists every failed field of a struct.
type Error struct {
	Fields []FieldError
}

// FieldError is a single failed rule.
type FieldError struct {
	Namespace string
	Tag       string
	Param     string
	Value     any
}

func (f FieldError) String() string {
	if f.Param != "" {
		return fmt.Sprintf("%s: must satisfy %s=%s (got %v)", f.Namespace, f.Tag, f.Param, f.Value)
	}
	return fmt.Sprintf("%s: must satisfy %s (got %v)", f.Namespace, f.Tag, f.Value)
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Namespace: fe.Namespace(),
			Tag:       fe.Tag(),
			Param:     fe.Param(),
			Value:     fe.Value(),
		})
	}
	return out
}
