package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Request structs declare their constraints as binding tags. Handlers get
// them checked by ShouldBindJSON and services re-run them after normalising
// input, so both paths reject the same requests before any store call.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		return monthPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("holiday_country", func(fl validator.FieldLevel) bool {
		return IsSupportedCountry(fl.Field().String())
	})
}

func validate(req interface{}) error {
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return InvalidInput(err)
	}
	return nil
}

// InvalidInput classifies a binding or validator failure as a validation
// error with a message fit for the dashboard. Field failures carry only that
// message; decode failures keep the decoder error.
func InvalidInput(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindValidation, Message: "invalid request body", Err: err}
	}
	return &Error{Kind: KindValidation, Message: fieldMessage(verrs[0])}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "please enter a valid email address"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + fe.Param() + " characters"
		}
		return field + " must be at most " + fe.Param()
	case "yearmonth":
		return field + " must be in YYYY-MM format"
	case "holiday_country":
		return "unsupported holiday calendar"
	default:
		return field + " is invalid"
	}
}
