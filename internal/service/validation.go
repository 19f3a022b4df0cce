package service

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var academicYearPattern = regexp.MustCompile(`^AY\d{4}$`)

// ValidAcademicYear reports whether code looks like AY2526.
func ValidAcademicYear(code string) bool {
	return academicYearPattern.MatchString(code)
}

// NewValidator returns a validator with the registrar tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ayCode", func(fl validator.FieldLevel) bool {
		return ValidAcademicYear(fl.Field().String())
	})
	return v
}
