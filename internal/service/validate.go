package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	slugRe     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误里使用表单字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return v
}

var messages = map[string]string{
	"notblank": "This field cannot be empty.",
	"required": "This field is required.",
	"max":      "Value is too long.",
	"min":      "Value is too short.",
	"slug":     "Use only letters, digits, hyphens and underscores.",
	"username": "Use only letters, digits and @/./+/-/_ characters.",
}

// validateForm 只返回第一个字段错误
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := messages[fe.Tag()]
	if !ok {
		msg = "Invalid value."
	}
	return invalid(fe.Field(), msg)
}
