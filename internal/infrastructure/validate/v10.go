package validate

import (
	"reflect"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// PlaygroundV10 Validator on go-playground/validator with english messages
type PlaygroundV10 struct {
	core  *validator.Validate
	trans ut.Translator
}

var _ Validator = &PlaygroundV10{}

// NewValidator .
func NewValidator() *PlaygroundV10 {
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")

	core := validator.New()
	en_translations.RegisterDefaultTranslations(core, trans)
	core.RegisterTagNameFunc(fieldName)
	return &PlaygroundV10{core, trans}
}

// fieldName json name of a body field, query name of a query field
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		if name := fld.Tag.Get(tag); name != "" && name != "-" {
			return name
		}
	}
	return ""
}

// Struct implement Validator
func (v *PlaygroundV10) Struct(s interface{}) []*FieldError {
	return v.translate("", v.core.Struct(s))
}

// Var implement Validator
func (v *PlaygroundV10) Var(name string, value interface{}, tag string) []*FieldError {
	return v.translate(name, v.core.Var(value, tag))
}

// translate flattens err, name stands in for the field of a single value check
func (v *PlaygroundV10) translate(name string, err error) []*FieldError {
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []*FieldError{NewFieldError(name, err.Error())}
	}

	result := make([]*FieldError, 0, len(errs))
	for _, item := range errs {
		if name != "" {
			result = append(result, NewFieldError(name, name+item.Translate(v.trans)))
			continue
		}
		result = append(result, NewFieldError(item.Field(), item.Translate(v.trans)))
	}
	return result
}
