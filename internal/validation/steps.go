package validation

import (
	"strings"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

// ValidateOnboardingStep checks that payload carries what step requires, and
// runs the field rules on whatever it carries. Steps outside the known flow
// always pass so that new steps can ship before their rules do.
func ValidateOnboardingStep(step models.Step, payload models.AccountPatch) Result {
	if !step.IsKnown() {
		return Result{IsValid: true}
	}

	var errs []string
	switch step {
	case models.StepAccount:
		if isBlank(payload.Email) {
			errs = append(errs, "Email is required")
		}
		if isBlank(payload.Name) {
			errs = append(errs, "Name is required")
		}
	case models.StepAboutYou:
		if isBlank(payload.DateOfBirth) {
			errs = append(errs, "Date of birth is required")
		}
	case models.StepBudget:
		if payload.Budget == nil && (payload.Preferences == nil || payload.Preferences.Budget == nil) {
			errs = append(errs, "Please set your budget range")
		}
		if payload.Location == nil || (strings.TrimSpace(payload.Location.City) == "" && strings.TrimSpace(payload.Location.State) == "") {
			errs = append(errs, "Please set your preferred location")
		}
	case models.StepLifestyle:
		errs = append(errs, lifestyleStepErrors(payload.Lifestyle)...)
	case models.StepPhotos:
		hasPicture := payload.ProfilePicture != nil && payload.ProfilePicture.IsSet()
		if !hasPicture && len(payload.Photos) == 0 {
			errs = append(errs, "Please add a profile picture")
		}
	case models.StepPlaceDetails:
		if hasPlace(payload) {
			pd := payload.PlaceDetails
			if pd == nil || strings.TrimSpace(pd.RoomType) == "" {
				errs = append(errs, "Please select a room type")
			}
			if pd == nil || len(pd.Amenities) == 0 {
				errs = append(errs, "Please select at least one amenity")
			}
		}
	}

	return Merge(newResult(errs), ValidateAccountMutation(payload))
}

func lifestyleStepErrors(l *models.LifestylePatch) []string {
	if l == nil {
		return []string{"Please answer the lifestyle questions"}
	}
	var errs []string
	if l.Cleanliness == nil {
		errs = append(errs, "Please rate your cleanliness")
	}
	if l.NoiseLevel == nil {
		errs = append(errs, "Please rate your noise tolerance")
	}
	if l.GuestFrequency == nil {
		errs = append(errs, "Please tell us how often you have guests")
	}
	if l.Smoking == nil {
		errs = append(errs, "Please tell us whether you smoke")
	}
	if !l.HasSchedule() {
		errs = append(errs, "Please choose your sleep schedule")
	}
	return errs
}

// hasPlace reads the has-place answer from the payload. Callers fill it in
// from the stored account when the payload does not carry it.
func hasPlace(p models.AccountPatch) bool {
	if p.HasPlace != nil {
		return *p.HasPlace
	}
	return p.UserRole != nil && *p.UserRole == models.RolePlaceLister
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
