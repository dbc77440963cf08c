package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

// Register adds the custom tags to v and reports fields by their json name.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("jee_difficulty", validateDifficulty); err != nil {
		return fmt.Errorf("register jee_difficulty: %w", err)
	}
	if err := v.RegisterValidation("question_type", validateQuestionType); err != nil {
		return fmt.Errorf("register question_type: %w", err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return nil
}

// RegisterWithGin installs the custom tags on gin's binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

func validateDifficulty(fl validator.FieldLevel) bool {
	return entity.IsValidDifficulty(fl.Field().String())
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return entity.IsValidQuestionType(fl.Field().String())
}

// FieldErrors converts a binding error into per-field messages. It returns nil
// when err is not a validation error, e.g. malformed JSON.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the root struct name from the namespace: "req.config.subjects" -> "config.subjects".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "jee_difficulty":
		return "must be Easy, Medium or Hard"
	case "question_type":
		return "must be Single Choice, Multiple Choice or Numerical"
	}
	return fmt.Sprintf("failed on the %q rule", fe.Tag())
}
