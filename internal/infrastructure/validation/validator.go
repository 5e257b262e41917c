package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Get returns the singleton validator instance
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		_ = validate.RegisterValidation("http_url", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			raw := strings.TrimSpace(fl.Field().String())
			if raw == "" {
				return false
			}
			u, err := url.Parse(raw)
			if err != nil {
				return false
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false
			}
			if strings.TrimSpace(u.Host) == "" {
				return false
			}
			return true
		})

		// maxbytes bounds the UTF-8 byte length of a string, unlike max which
		// counts runes.
		_ = validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return len(fl.Field().String()) <= limit
		})

		// alias accepts URL-path-safe custom back halves. An empty value clears one.
		_ = validate.RegisterValidation("alias", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() == reflect.Ptr {
				if field.IsNil() {
					return true
				}
				field = field.Elem()
			}
			if field.Kind() != reflect.String {
				return false
			}
			return field.String() == "" || aliasPattern.MatchString(field.String())
		})
	})
	return validate
}

// Validate validates a struct and returns an error if invalid
func Validate(s any) error {
	return Get().Struct(s)
}

// FirstMessage renders the first validation issue of err as a client-facing
// message. ok is false when err carries no validation issues.
func FirstMessage(err error) (msg string, ok bool) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "", false
	}

	e := validationErrs[0]
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", e.Field()), true
	case "http_url":
		return fmt.Sprintf("%s must be a valid http or https url", e.Field()), true
	case "alias":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'", e.Field()), true
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field()), true
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()), true
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()), true
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", e.Field(), e.Param()), true
	case "datetime":
		return fmt.Sprintf("%s must match %s", e.Field(), e.Param()), true
	default:
		return fmt.Sprintf("%s is invalid", e.Field()), true
	}
}
