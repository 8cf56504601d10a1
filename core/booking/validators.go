package booking

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/csnedu/appointments/core"
)

var (
	nowFunc = time.Now // mockable

	notPastTag  = "notpast"
	notPastText = "{0} cannot be in the past"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(notPastTag, notPastValidation)
	core.RegisterCustomTranslation(validate, translator, notPastTag, notPastText)
}

// notPastValidation accepts dates (DateLayout) from today on. Unparsable dates are left to `datetime`.
func notPastValidation(fl validator.FieldLevel) bool {
	now := nowFunc()
	date, err := time.ParseInLocation(DateLayout, fl.Field().String(), now.Location())
	if err != nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !date.Before(today)
}
