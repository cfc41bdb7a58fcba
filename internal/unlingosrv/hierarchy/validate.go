package hierarchy

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/unlingo/unlingo/internal/common/apperrors"
)

var validate = validator.New()

var (
	versionRegexp  = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?$`)
	langCodeRegexp = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

func init() {
	validate.RegisterValidation("versionstring", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "main" || versionRegexp.MatchString(s)
	})
	validate.RegisterValidation("langcode", func(fl validator.FieldLevel) bool {
		return langCodeRegexp.MatchString(fl.Field().String())
	})
}

// validateStruct maps validator failures onto the validation error with the
// offending field named, which callers surface directly.
func validateStruct(v any) apperrors.Error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for _, fe := range errs {
			fields = append(fields, fe.Field())
		}
		return ErrValidation.Msg("invalid value for: " + strings.Join(fields, ", "))
	}
	return ErrValidation.Err(err)
}

// NormalizeLanguageCode lowercases the language and uppercases the region so
// "EN-us" and "en-US" are the same language.
func NormalizeLanguageCode(code string) string {
	parts := strings.SplitN(code, "-", 2)
	out := strings.ToLower(parts[0])
	if len(parts) == 2 {
		out += "-" + strings.ToUpper(parts[1])
	}
	return out
}
