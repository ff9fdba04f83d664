package main

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	pinPattern       = regexp.MustCompile(`^[0-9]{4,8}$`)
	registerValidate sync.Once
	registerErr      error
)

// registerValidators adds the custom binding rules used by the forms.
func registerValidators() error {
	registerValidate.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
			return pinPattern.MatchString(fl.Field().String())
		})
	})
	return registerErr
}
