package profilesync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kimbucha/roomiesBolt-sub000/internal/images"
	"github.com/kimbucha/roomiesBolt-sub000/internal/lifestyle"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

// Documented defaults used when an account has no usable answer.
const (
	DefaultBudget           = "$1000-2000"
	DefaultLocation         = "Location not set"
	DefaultRoomType         = "private"
	DefaultAge              = 21
	DefaultPlaceholderImage = "https://roomies.app/static/placeholder-avatar.png"
)

// ErrNoUsableImage means neither resolution nor reverse mapping produced an
// image; DefaultPlaceholderImage is used instead.
var ErrNoUsableImage = errors.New("no usable image for profile")

// ImageIdentifier resolves the account image and maps it back to a storable
// identifier. Opaque asset handles are passed through. The placeholder is
// returned together with ErrNoUsableImage when nothing else works.
func ImageIdentifier(a models.AccountRecord) (string, error) {
	res := images.Resolve(&a)
	if id, ok := images.ToStorableIdentifier(res); ok {
		return id, nil
	}
	if asset := strings.TrimSpace(res.Source.Asset); asset != "" {
		return asset, nil
	}
	return DefaultPlaceholderImage, ErrNoUsableImage
}

// BudgetString formats the budget answer. ok is false when DefaultBudget was
// used.
func BudgetString(a models.AccountRecord) (s string, ok bool) {
	if a.Budget != nil {
		return formatBudget(*a.Budget), true
	}
	if a.Preferences != nil && a.Preferences.Budget != nil {
		return formatBudget(*a.Preferences.Budget), true
	}
	return DefaultBudget, false
}

func formatBudget(b models.BudgetRange) string {
	if b.Max > 0 {
		return fmt.Sprintf("$%d-%d", b.Min, b.Max)
	}
	return fmt.Sprintf("Up to $%d", b.Min)
}

// RoomType picks the room type: place details, then preferences, then
// DefaultRoomType.
func RoomType(a models.AccountRecord) string {
	if a.PlaceDetails != nil && strings.TrimSpace(a.PlaceDetails.RoomType) != "" {
		return a.PlaceDetails.RoomType
	}
	if a.Preferences != nil && strings.TrimSpace(a.Preferences.RoomType) != "" {
		return a.Preferences.RoomType
	}
	return DefaultRoomType
}

// LocationString joins city and state. ok is false when DefaultLocation was
// used.
func LocationString(a models.AccountRecord) (s string, ok bool) {
	if a.Location == nil {
		return DefaultLocation, false
	}
	var parts []string
	if city := strings.TrimSpace(a.Location.City); city != "" {
		parts = append(parts, city)
	}
	if state := strings.TrimSpace(a.Location.State); state != "" {
		parts = append(parts, state)
	}
	if len(parts) == 0 {
		return DefaultLocation, false
	}
	return strings.Join(parts, ", "), true
}

// SleepSchedule derives the schedule from the early-riser and night-owl
// answers.
func SleepSchedule(a models.AccountRecord) string {
	if a.Lifestyle == nil {
		return lifestyle.Flexible
	}
	return lifestyle.MapSleepSchedule(a.Lifestyle.EarlyRiser, a.Lifestyle.NightOwl)
}

// PetPreference mirrors the pets answer.
func PetPreference(a models.AccountRecord) string {
	return lifestyle.PetPreferenceFromBool(a.Lifestyle != nil && a.Lifestyle.Pets)
}

// RoomPhotos prefers place-details photos over uploaded photos. Accounts
// without place details have no room photos.
func RoomPhotos(a models.AccountRecord) []string {
	if a.PlaceDetails == nil {
		return nil
	}
	if len(a.PlaceDetails.Photos) > 0 {
		return cloneStrings(a.PlaceDetails.Photos)
	}
	return cloneStrings(a.Photos)
}

// Description is the place description, falling back to the bio.
func Description(a models.AccountRecord) string {
	if a.PlaceDetails == nil {
		return ""
	}
	if d := strings.TrimSpace(a.PlaceDetails.Description); d != "" {
		return a.PlaceDetails.Description
	}
	return a.Bio
}

// Age returns whole years between dob and now. ok is false when dob is blank
// or unparseable and DefaultAge was used.
func Age(dob string, now time.Time) (age int, ok bool) {
	born, parsed := models.ParseDate(dob)
	if !parsed {
		return DefaultAge, false
	}
	age = now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return DefaultAge, false
	}
	return age, true
}

// Lifestyle maps the raw lifestyle answers to canonical categories.
func Lifestyle(a models.AccountRecord) models.DiscoveryLifestyle {
	if a.Lifestyle == nil {
		return models.DiscoveryLifestyle{SleepSchedule: SleepSchedule(a)}
	}
	l := a.Lifestyle
	return models.DiscoveryLifestyle{
		Cleanliness:    lifestyle.MapCleanliness(l.Cleanliness),
		NoiseLevel:     lifestyle.MapNoiseTolerance(l.NoiseLevel),
		GuestFrequency: lifestyle.MapGuestFrequency(l.GuestFrequency),
		SleepSchedule:  SleepSchedule(a),
		Smoking:        l.Smoking,
		Pets:           l.Pets,
		Drinking:       l.Drinking,
	}
}

// Preferences mirrors the preference flags used by matching.
func Preferences(a models.AccountRecord) models.PersonalPreferences {
	p := models.PersonalPreferences{PetPreference: PetPreference(a)}
	if a.Lifestyle != nil {
		p.EarlyRiser = a.Lifestyle.EarlyRiser
		p.NightOwl = a.Lifestyle.NightOwl
	}
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
