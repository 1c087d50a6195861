// Package validation checks request payloads before they are sent to the backend.
package validation

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/jrsteele09/go-academy-client/users"
)

const (
	notBlankTag = "notblank"
	roleTag     = "role"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report JSON field names, they are what the backend reports too
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(roleTag, validRole)

	messages := map[string]string{
		notBlankTag: "{0} must not be blank",
		roleTag:     "{0} must be one of " + strings.Join(roleNames(), ", "),
	}
	for tag, msg := range messages {
		_ = validate.RegisterTranslation(tag, translator,
			func(trans ut.Translator) error {
				return trans.Add(tag, msg, true)
			},
			func(trans ut.Translator, fe validator.FieldError) string {
				t, _ := trans.T(fe.Tag(), fe.Field())
				return t
			},
		)
	}
}

// FieldErrors maps a JSON field name to a readable message
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v against its validate tags. It returns FieldErrors when a field is invalid.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(FieldErrors, len(verrs))
	for _, ve := range verrs {
		fields[ve.Field()] = ve.Translate(translator)
	}
	return fields
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

func validRole(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	if field.String() == "" {
		return true
	}
	return users.RoleType(field.String()).Valid()
}

func roleNames() []string {
	names := make([]string, 0, len(users.Roles))
	for _, r := range users.Roles {
		names = append(names, r.String())
	}
	return names
}
