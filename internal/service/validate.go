package service

import (
	"reflect"
	"strings"

	"github.com/magnusfroste/notton/pkg/code"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// inputValidator validates facade input and renders failures in the
// language of the code package
type inputValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newInputValidator() *inputValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.ToLower(fld.Name)
	})

	uni := ut.New(en.New(), en.New(), zh.New())
	locale := "en"
	if code.GetGlobalDefaultLang() == "zh_cn" {
		locale = "zh"
	}
	trans, _ := uni.GetTranslator(locale)
	if locale == "zh" {
		_ = zh_translations.RegisterDefaultTranslations(validate, trans)
	} else {
		_ = en_translations.RegisterDefaultTranslations(validate, trans)
	}
	return &inputValidator{validate: validate, trans: trans}
}

// Struct returns code.ErrorInvalidParams with one detail per failed field
func (v *inputValidator) Struct(s interface{}) error {
	return v.wrap(v.validate.Struct(s))
}

// Var validates a single value against tag
func (v *inputValidator) Var(field interface{}, tag string) error {
	return v.wrap(v.validate.Var(field, tag))
}

func (v *inputValidator) wrap(err error) error {
	if err == nil {
		return nil
	}
	c := code.ErrorInvalidParams.Clone()
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := make([]string, 0, len(errs))
		for _, fe := range errs {
			details = append(details, fe.Translate(v.trans))
		}
		return c.WithDetails(details...)
	}
	return c.WithCause(err)
}
