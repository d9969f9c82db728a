// Package validation evaluates declarative `validate` struct tags and reports
// failures per field, keyed by the field's json name.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var ErrInvalid = errors.New("validation failed")

// Errors maps a field name to its first failure message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrInvalid
}

// Add keeps the first message reported for a field.
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Err returns nil when no field failed, so callers can `return errs.Err()`.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var messages = map[string]string{
	"required": "The {0} field is required.",
	"email":    "The {0} field must be a valid email address.",
	"min":      "The {0} field must be at least {1} characters.",
	"max":      "The {0} field must not be greater than {1} characters.",
	"unique":   "The {0} has already been taken.",
	"image":    "The {0} field must be an image (jpg, jpeg, png, gif, webp).",
	"maxsize":  "The {0} field must not be greater than {1} kilobytes.",
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(field.Name)
		}
		return name
	})

	locale := en.New()
	trans, found := ut.New(locale, locale).GetTranslator("en")
	if !found {
		panic("english validation translator not found")
	}
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic("register default validation messages: " + err.Error())
	}

	for tag, text := range messages {
		tag, text := tag, text
		if err := trans.Add(tag, text, true); err != nil {
			panic("register validation message " + tag + ": " + err.Error())
		}
		err := validate.RegisterTranslation(tag, trans,
			func(ut.Translator) error { return nil },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(fe.Tag(), fe.Field(), fe.Param())
				if err != nil {
					return fe.Error()
				}
				return msg
			},
		)
		if err != nil {
			panic("register validation translation " + tag + ": " + err.Error())
		}
	}

	return &Validator{validate: validate, trans: trans}
}

// Struct validates s and returns the failures, or nil when s is valid.
func (v *Validator) Struct(s any) Errors {
	errs := Errors{}
	err := v.validate.Struct(s)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("_", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), fe.Translate(v.trans))
	}
	return errs
}

// Message renders the message for a rule that is checked outside struct tags,
// such as uniqueness against the store.
func (v *Validator) Message(tag, field string, params ...string) string {
	args := append([]string{field}, params...)
	msg, err := v.trans.T(tag, args...)
	if err != nil {
		return "The " + field + " field is invalid."
	}
	return msg
}
