// Package validation checks proposed account mutations before they are
// committed. Validators never panic and always return a Result; the caller
// decides whether a failed Result blocks the mutation.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kimbucha/roomiesBolt-sub000/internal/images"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

const (
	// MaxPersonalityTraits caps the free-form trait list. Kept in step with
	// the max tag on mutationView.PersonalityTraits.
	MaxPersonalityTraits = 10

	minLifestyleLevel = 0
	maxLifestyleLevel = 3
)

// Result is the outcome of a validation.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

func newResult(errs []string) Result {
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return &Error{Reasons: r.Errors}
}

// Merge combines results; the merged result is valid only if all are.
func Merge(results ...Result) Result {
	var errs []string
	for _, r := range results {
		errs = append(errs, r.Errors...)
	}
	return newResult(errs)
}

// Error is a failed validation. Its message is the first reason, which is
// what the UI shows.
type Error struct {
	Reasons []string
}

func (e *Error) Error() string {
	if len(e.Reasons) == 0 {
		return "validation failed"
	}
	return e.Reasons[0]
}

// mutationView is the tagged form of an AccountPatch. Nil fields are absent
// from the mutation and skipped.
type mutationView struct {
	Email             *string `validate:"omitnil,email"`
	Name              *string `validate:"omitnil,display_name"`
	DateOfBirth       *string `validate:"omitnil,date_of_birth"`
	Gender            *string `validate:"omitnil,oneof=male female non-binary other prefer-not-to-say"`
	Budget            *budgetView
	PreferencesBudget *budgetView
	Lifestyle         *lifestyleView
	PersonalityTraits []string `validate:"omitempty,max=10"`
	PersonalityType   *string  `validate:"omitempty,personality_type"`
	ProfilePhotoIndex *int     `validate:"omitnil,min=-1"`
}

type budgetView struct {
	Min int `validate:"gte=0"`
	Max int `validate:"gte=0"`
}

type lifestyleView struct {
	Cleanliness    *int `validate:"omitnil,min=0,max=3"`
	NoiseLevel     *int `validate:"omitnil,min=0,max=3"`
	GuestFrequency *int `validate:"omitnil,min=0,max=3"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must(v.RegisterValidation("display_name", func(fl validator.FieldLevel) bool {
		return countNonSpace(fl.Field().String()) >= 2
	}))
	must(v.RegisterValidation("date_of_birth", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseDate(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("personality_type", func(fl validator.FieldLevel) bool {
		return images.IsPersonalityType(fl.Field().String())
	}))
	v.RegisterStructValidation(budgetRangeRule, budgetView{})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// budgetRangeRule rejects min > max. Max == 0 is an open-ended range
// ("Up to $min").
func budgetRangeRule(sl validator.StructLevel) {
	b := sl.Current().Interface().(budgetView)
	if b.Max != 0 && b.Max < b.Min {
		sl.ReportError(b.Min, "Min", "Min", "budget_range", "")
	}
}

func newMutationView(p models.AccountPatch) mutationView {
	view := mutationView{
		Name:              p.Name,
		DateOfBirth:       p.DateOfBirth,
		PersonalityTraits: p.PersonalityTraits,
		PersonalityType:   p.PersonalityType,
		ProfilePhotoIndex: p.ProfilePhotoIndex,
	}
	if p.Email != nil {
		view.Email = models.Ptr(strings.TrimSpace(*p.Email))
	}
	if p.Gender != nil {
		view.Gender = models.Ptr(strings.ToLower(strings.TrimSpace(*p.Gender)))
	}
	if p.Budget != nil {
		view.Budget = &budgetView{Min: p.Budget.Min, Max: p.Budget.Max}
	}
	if p.Preferences != nil && p.Preferences.Budget != nil {
		view.PreferencesBudget = &budgetView{Min: p.Preferences.Budget.Min, Max: p.Preferences.Budget.Max}
	}
	if p.Lifestyle != nil {
		view.Lifestyle = &lifestyleView{
			Cleanliness:    p.Lifestyle.Cleanliness,
			NoiseLevel:     p.Lifestyle.NoiseLevel,
			GuestFrequency: p.Lifestyle.GuestFrequency,
		}
	}
	return view
}

// ValidateAccountMutation checks only the fields present in p.
func ValidateAccountMutation(p models.AccountPatch) Result {
	err := validate.Struct(newMutationView(p))
	if err == nil {
		return newResult(nil)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newResult([]string{err.Error()})
	}
	errs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, message(fe))
	}
	return newResult(errs)
}

var lifestyleLabels = map[string]string{
	"Cleanliness":    "Cleanliness",
	"NoiseLevel":     "Noise level",
	"GuestFrequency": "Guest frequency",
}

// message maps a field error onto the text the UI shows.
func message(fe validator.FieldError) string {
	if fe.Tag() == "budget_range" {
		return "Minimum budget cannot be greater than maximum budget"
	}
	if label, ok := lifestyleLabels[fe.Field()]; ok {
		return fmt.Sprintf("%s must be between %d and %d", label, minLifestyleLevel, maxLifestyleLevel)
	}
	switch fe.Field() {
	case "Email":
		return "Please enter a valid email address"
	case "Name":
		return "Name must be at least 2 characters"
	case "DateOfBirth":
		return "Please enter a valid date of birth"
	case "Gender":
		return "Please select a valid gender option"
	case "Min":
		return "Minimum budget cannot be negative"
	case "Max":
		return "Maximum budget cannot be negative"
	case "PersonalityTraits":
		return fmt.Sprintf("Please select at most %d personality traits", MaxPersonalityTraits)
	case "PersonalityType":
		return "Personality type must be one of the 16 personality codes"
	case "ProfilePhotoIndex":
		return "Profile photo selection is invalid"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
