package controllers

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// +221XXXXXXXXX or bare 77/78/76/70 numbers
	telephoneSenegalRe = regexp.MustCompile(`^(\+221|221)?(76|77|78|70)\d{7}$`)
	// 2 uppercase letters followed by 9 digits, e.g. AB123456789
	nciSenegalRe = regexp.MustCompile(`^[A-Z]{2}\d{9}$`)
)

// RegisterValidators installs the Senegal-specific binding rules on gin's
// validator engine. Call once before routes are set up.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// error keys use the json field names, not the Go ones
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("telephone_sn", func(fl validator.FieldLevel) bool {
		return telephoneSenegalRe.MatchString(fl.Field().String())
	})
	v.RegisterValidation("nci_sn", func(fl validator.FieldLevel) bool {
		return nciSenegalRe.MatchString(fl.Field().String())
	})
}
