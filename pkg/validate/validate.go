package validate

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator validates request payloads against their `validate` tags
// and renders human-readable English messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with the English translations registered.
func New() (*Validator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)

	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("english translator not found")
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	return &Validator{validate: v, trans: trans}, nil
}

// Struct validates s and returns a single error joining the translated
// field messages, or nil when s is valid.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fieldErr.Translate(v.trans))
	}

	return errors.New(strings.Join(messages, "; "))
}
