package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

// NewValidator returns a validator with the scheduling tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		wd := fl.Field().Int()
		return wd >= 1 && wd <= 7
	})
	_ = v.RegisterValidation("yeartag", func(fl validator.FieldLevel) bool {
		return models.YearTag(fl.Field().String()).Valid()
	})
	return v
}
