package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pt_BR_translations "github.com/go-playground/validator/v10/translations/pt_BR"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "este campo não pode ficar em branco"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "este campo é obrigatório"

	emailTag  = "email"
	emailText = "informe um endereço de email válido"

	maxTag  = "max"
	maxText = "certifique-se de que este campo não tenha mais de {0} caracteres"

	gtTag  = "gt"
	gtText = "certifique-se de que este valor seja maior que {0}"

	oneOfTag  = "oneof"
	oneOfText = "escolha uma das opções válidas: {0}"

	eqFieldTag  = "eqfield"
	eqFieldText = "os valores não coincidem"
)

// NewValidator returns a validator with the shared tags and translations registered.
func NewValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	InitValidators(validate, translator)
	return validate
}

// NewTranslator returns the pt_BR translator used for validation messages.
func NewTranslator() ut.Translator {
	ptBR := pt_BR.New()
	uni := ut.New(ptBR, ptBR)
	translator, _ := uni.GetTranslator(ptBR.Locale())
	return translator
}

// InitValidators instantiates the validator for use.
// It panics if a translation cannot be registered: the texts are fixed, so that is a programming error.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	// library defaults; the tags the API reports are overridden below
	_ = pt_BR_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	if err := validate.RegisterValidation(notBlankTag, notBlankValidation); err != nil {
		panic(errors.Wrapf(err, "registering %q validation", notBlankTag))
	}
	MustRegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	MustRegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	MustRegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	MustRegisterCustomTranslation(validate, translator, emailTag, emailText, true)
	MustRegisterCustomTranslation(validate, translator, maxTag, maxText, true)
	MustRegisterCustomTranslation(validate, translator, gtTag, gtText, true)
	MustRegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
	MustRegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// The text may reference the tag param (e.g. the 255 of "max=255") with {0}.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) error {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	return validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

// MustRegisterCustomTranslation is like RegisterCustomTranslation but panics on error.
func MustRegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	if err := RegisterCustomTranslation(validate, translator, tag, text, override...); err != nil {
		panic(errors.Wrapf(err, "registering %q translation", tag))
	}
}

// TranslateErrors converts validator.ValidationErrors into a {field: message} map.
func TranslateErrors(errs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		fldErrs[vErr.Field()] = vErr.Translate(translator)
	}
	return fldErrs
}

// Custom Global Validators

// notBlankValidation fails on strings made of whitespace only.
func notBlankValidation(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	return strings.TrimSpace(field.String()) != ""
}
