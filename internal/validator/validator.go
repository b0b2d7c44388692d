package validator

import (
	stderrors "errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/windfall/recap_client/internal/errors"
)

// Validator checks struct tags and reports failures in English.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// New creates a validator that names fields by their JSON tag.
func New() *Validator {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	en_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates s. Failures come back as a VALIDATION_ERROR whose details
// map each field to its message.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := v.TranslateErrors(err)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make(map[string]interface{}, len(fields))
	for name, msg := range fields {
		details[name] = msg
	}
	return errors.Validation(fields[names[0]]).WithDetails(details)
}

// TranslateErrors maps field names to human-readable messages. A non
// validation error lands under "detail".
func (v *Validator) TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if stderrors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
