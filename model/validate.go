package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(newFieldRules, NewField{})
	})
	return validate
}

// reference fields must name their target; other types must not.
func newFieldRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(NewField)
	switch {
	case f.DataType == EntityReference && f.ReferenceTarget == nil:
		sl.ReportError(f.ReferenceTarget, "ReferenceTarget", "referenceTargetEntityDefinitionId", "required_for_reference", "")
	case f.DataType != EntityReference && f.ReferenceTarget != nil:
		sl.ReportError(f.ReferenceTarget, "ReferenceTarget", "referenceTargetEntityDefinitionId", "only_for_reference", "")
	}
}

// ValidationError lists the rejected fields of a write shape.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// Validate checks a write shape (NewDefinition, NewField, DefinitionPatch)
// and returns a *ValidationError describing every failed rule.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Problems: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		out.Problems = append(out.Problems, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must be between 2 and 100 characters", field)
	case "required_for_reference":
		return field + " is required for reference fields"
	case "only_for_reference":
		return field + " is only allowed on reference fields"
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
