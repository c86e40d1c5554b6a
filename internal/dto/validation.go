package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prohmpiriya/servus/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the Servus validation tags on gin's validator:
// objectid, servusrole, slug and hhmm. Field errors are reported by their
// json or form name.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("unexpected validator engine")
			return
		}
		registerErr = registerOn(v)
	})
	return registerErr
}

func registerOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	validators := map[string]validator.Func{
		"objectid": func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		},
		"servusrole": func(fl validator.FieldLevel) bool {
			return domain.Role(fl.Field().String()).IsValid()
		},
		"slug": func(fl validator.FieldLevel) bool {
			return slugRegex.MatchString(fl.Field().String())
		},
		"hhmm": func(fl validator.FieldLevel) bool {
			return hhmmRegex.MatchString(fl.Field().String())
		},
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// ValidationDetails turns a binding error into field -> message details.
// The second result is false when err is not a validation or decoding error.
func ValidationDetails(err error) (map[string]string, bool) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make(map[string]string, len(ve))
		for _, fe := range ve {
			details[fieldPath(fe)] = fieldMessage(fe)
		}
		return details, true
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return map[string]string{"body": "malformed JSON"}, true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return map[string]string{typeErr.Field: "must be of type " + typeErr.Type.String()}, true
	}
	return nil, false
}

// fieldPath drops the struct name and embedded struct names from the
// namespace. Tagged fields are lower case; Go names are not.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 && p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gtfield":
		return "must be after " + strings.ToLower(fe.Param())
	case "objectid":
		return "must be a valid id"
	case "servusrole":
		roles := make([]string, 0, 6)
		for _, r := range domain.AllRoles() {
			roles = append(roles, string(r))
		}
		return "must be one of: " + strings.Join(roles, ", ")
	case "slug":
		return "must contain only lowercase letters, numbers and hyphens"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "timezone":
		return "must be an IANA time zone"
	}
	return "is invalid"
}
