package common

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	validator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator checks request structs and reports every violated constraint as a
// readable message keyed by the JSON field name.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator builds a validator with English messages.
func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := validate.RegisterTranslation("required_without_all", trans,
		func(t ut.Translator) error {
			return t.Add("required_without_all", "{0} is required when none of {1} is provided", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("required_without_all", fe.Field(), strings.ToLower(strings.ReplaceAll(fe.Param(), " ", ", ")))
			return msg
		},
	); err != nil {
		return nil, err
	}
	return &Validator{validate: validate, translator: trans}, nil
}

// MustNewValidator panics when the translations cannot be registered.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Struct validates s and returns one message per violation, or nil when s is valid.
// Violations on the JSON paths in skip are left out; callers pass the fields
// DecodeJSON already reported.
func (v *Validator) Struct(s any, skip ...string) []string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if skipped(fe.Namespace(), skip) {
			continue
		}
		details = append(details, fe.Translate(v.translator))
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

func skipped(namespace string, paths []string) bool {
	for _, p := range paths {
		if strings.HasSuffix(namespace, "."+p) {
			return true
		}
	}
	return false
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
