package api

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	scoreTag    = "score"
	yearRuleTag = "yearrule"
)

// requestValidator validates request bodies and renders field errors in
// English, keyed by JSON field name.
type requestValidator struct {
	*validator.Validate
	trans ut.Translator
	scale grades.Scale
}

func newValidator(scale grades.Scale) *requestValidator {
	v := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	rv := &requestValidator{Validate: v, trans: trans, scale: scale}

	_ = v.RegisterValidation(notBlankTag, notBlank)
	_ = v.RegisterValidation(scoreTag, func(fl validator.FieldLevel) bool {
		return scale.Contains(fl.Field().Float())
	})
	_ = v.RegisterValidation(yearRuleTag, func(fl validator.FieldLevel) bool {
		rule := grades.YearRule(fl.Field().String())
		return rule == "" || rule.Valid()
	})

	// Custom tags need a translation entry; the default one is already
	// registered, so a no-op register func is passed.
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, scoreTag, yearRuleTag} {
		_ = v.RegisterTranslation(tag, trans, registerFn, rv.translateCustom)
	}
	return rv
}

func (rv *requestValidator) translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case scoreTag:
		return fmt.Sprintf("must be between %g and %g", rv.scale.Min, rv.scale.Max)
	case yearRuleTag:
		return fmt.Sprintf("must be %s or %s", grades.YearRuleCreditWeighted, grades.YearRuleSemesterMean)
	default:
		return ""
	}
}

// translate turns validation errors into a field -> message map. Field keys
// are namespaced below the top-level struct, e.g. "entries[0].weight".
func (rv *requestValidator) translate(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		fields[key] = fe.Translate(rv.trans)
	}
	return fields
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
