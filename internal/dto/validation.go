package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

// custom validation tags
const (
	dateTag          = "date"
	clockTag         = "hhmm"
	juryRoleTag      = "jury_role"
	gradeTag         = "grade"
	academicTitleTag = "academic_title"
)

var (
	minGrade = decimal.Zero
	maxGrade = decimal.NewFromInt(20)
)

// RegisterValidators installs the custom tags, JSON field names and English
// messages on v. It returns the translator used by ValidationMessages.
func RegisterValidators(v *validator.Validate) (ut.Translator, error) {
	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	validations := map[string]validator.Func{
		dateTag:          validateDate,
		clockTag:         validateClock,
		juryRoleTag:      validateJuryRole,
		gradeTag:         validateGrade,
		academicTitleTag: validateAcademicTitle,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, err
		}
	}

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{dateTag, clockTag, juryRoleTag, gradeTag, academicTitleTag} {
		if err := v.RegisterTranslation(tag, trans, registerFn, translateCustom); err != nil {
			return nil, err
		}
	}

	return trans, nil
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case dateTag:
		return fe.Field() + " must be a date formatted YYYY-MM-DD"
	case clockTag:
		return fe.Field() + " must be a time formatted HH:MM"
	case juryRoleTag:
		return fe.Field() + " must be one of president, examiner, rapporteur"
	case gradeTag:
		return fe.Field() + " must be between 0 and 20 with at most 2 decimals"
	case academicTitleTag:
		return fe.Field() + " must be one of professeur, maitre_conference, maitre_assistant"
	default:
		return fe.Error()
	}
}

// ValidationMessages maps each offending field to a readable message. It
// returns nil when err is not a validation error.
func ValidationMessages(err error, trans ut.Translator) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if trans != nil {
			out[fe.Field()] = fe.Translate(trans)
		} else {
			out[fe.Field()] = fe.Error()
		}
	}
	return out
}

// Custom Validators

func validateDate(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := model.ParseDate(s)
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok || len(s) != 5 {
		return false
	}
	_, err := model.ParseClock(s)
	return err == nil
}

func validateJuryRole(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && model.JuryRole(s).Valid()
}

func validateAcademicTitle(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && s != "" && model.AcademicTitle(s).Valid()
}

func validateGrade(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return ValidGrade(d)
}

// ValidGrade a grade lies in [0, 20] with at most two decimals.
func ValidGrade(d decimal.Decimal) bool {
	if d.LessThan(minGrade) || d.GreaterThan(maxGrade) {
		return false
	}
	return d.Equal(d.Round(2))
}
