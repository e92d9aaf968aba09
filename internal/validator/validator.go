package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/vi"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	vi_translations "github.com/go-playground/validator/v10/translations/vi"
)

var (
	uni          *ut.UniversalTranslator
	usernameExpr = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Setup registers the validator with English and Vietnamese translations on
// Gin's binding engine. Call once during application startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl govalidator.FieldLevel) bool {
		return usernameExpr.MatchString(fl.Field().String())
	})

	enLocale := en.New()
	uni = ut.New(enLocale, enLocale, vi.New())

	enTrans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, enTrans)
	registerUsername(v, enTrans, "{0} may only contain letters, numbers and underscores")

	viTrans, _ := uni.GetTranslator("vi")
	_ = vi_translations.RegisterDefaultTranslations(v, viTrans)
	registerUsername(v, viTrans, "{0} chỉ được chứa chữ cái, chữ số và dấu gạch dưới")
}

func registerUsername(v *govalidator.Validate, trans ut.Translator, text string) {
	_ = v.RegisterTranslation("username", trans,
		func(t ut.Translator) error { return t.Add("username", text, true) },
		func(t ut.Translator, fe govalidator.FieldError) string {
			msg, _ := t.T("username", fe.Field())
			return msg
		},
	)
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message in lang. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error, lang i18n.Lang) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		trans := translator(lang)
		for _, fe := range ve {
			if trans == nil {
				fields[fe.Field()] = fe.Error()
				continue
			}
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

func translator(lang i18n.Lang) ut.Translator {
	if uni == nil {
		return nil
	}
	trans, _ := uni.GetTranslator(string(lang))
	return trans
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err, language(c))
	}
	return nil
}

// BindQuery binds and validates query parameters into dst.
func BindQuery(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err, language(c))
	}
	return nil
}

func language(c *gin.Context) i18n.Lang {
	if v, ok := c.Get(i18n.ContextKey); ok {
		if lang, ok := v.(i18n.Lang); ok {
			return lang
		}
	}
	return i18n.Fallback()
}
