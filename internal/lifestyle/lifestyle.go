// Package lifestyle maps raw lifestyle answers onto canonical categories.
//
// Ordinal answers use a small scale where lower is stricter. Every mapper is
// total over its input and returns "" for a nil (unanswered) input; callers
// decide what default to show.
package lifestyle

import "strings"

// Cleanliness categories, strictest first.
const (
	VeryClean = "very_clean"
	Clean     = "clean"
	Moderate  = "moderate"
	Relaxed   = "relaxed"
)

// Noise tolerance categories, quietest first.
const (
	Quiet         = "quiet"
	ModerateNoise = "moderate"
	Loud          = "loud"
)

// Guest frequency categories, least frequent first.
const (
	Rarely       = "rarely"
	Occasionally = "occasionally"
	Frequently   = "frequently"
)

// Pet preference categories.
const (
	NoPets    = "no_pets"
	CatsOnly  = "cats_only"
	DogsOnly  = "dogs_only"
	AllPetsOK = "all_pets_ok"
)

// Sleep schedules.
const (
	EarlyBird = "early_bird"
	NightOwl  = "night_owl"
	Flexible  = "flexible"
)

// MapCleanliness maps a cleanliness score: ≤1 very_clean, 2 clean,
// 3 moderate, >3 relaxed.
func MapCleanliness(level *int) string {
	if level == nil {
		return ""
	}
	switch v := *level; {
	case v <= 1:
		return VeryClean
	case v == 2:
		return Clean
	case v == 3:
		return Moderate
	default:
		return Relaxed
	}
}

// MapNoiseTolerance maps a noise score: ≤1 quiet, 2 moderate, >2 loud.
func MapNoiseTolerance(level *int) string {
	if level == nil {
		return ""
	}
	switch v := *level; {
	case v <= 1:
		return Quiet
	case v == 2:
		return ModerateNoise
	default:
		return Loud
	}
}

// MapGuestFrequency maps a guest score: ≤1 rarely, 2 occasionally,
// >2 frequently.
func MapGuestFrequency(level *int) string {
	if level == nil {
		return ""
	}
	switch v := *level; {
	case v <= 1:
		return Rarely
	case v == 2:
		return Occasionally
	default:
		return Frequently
	}
}

// NormalizeGuestFrequency rewrites the legacy "sometimes"/"often" labels to
// the canonical ones. Other labels are returned unchanged.
func NormalizeGuestFrequency(label string) string {
	switch label {
	case "sometimes":
		return Occasionally
	case "often":
		return Frequently
	default:
		return label
	}
}

var petTokens = map[string]string{
	"no":          NoPets,
	"none":        NoPets,
	"false":       NoPets,
	"no_pets":     NoPets,
	"cat":         CatsOnly,
	"cats":        CatsOnly,
	"cats_only":   CatsOnly,
	"dog":         DogsOnly,
	"dogs":        DogsOnly,
	"dogs_only":   DogsOnly,
	"yes":         AllPetsOK,
	"true":        AllPetsOK,
	"all":         AllPetsOK,
	"any":         AllPetsOK,
	"both":        AllPetsOK,
	"all_pets_ok": AllPetsOK,
}

// MapPetPreference maps a pet answer token. Unrecognized tokens map to
// no_pets; a blank token is unanswered and maps to "".
func MapPetPreference(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return ""
	}
	if category, ok := petTokens[token]; ok {
		return category
	}
	return NoPets
}

// PetPreferenceFromBool maps the yes/no pets answer.
func PetPreferenceFromBool(pets bool) string {
	if pets {
		return MapPetPreference("yes")
	}
	return MapPetPreference("no")
}

// MapSleepSchedule derives the sleep schedule. Early riser wins when both
// flags are set.
func MapSleepSchedule(earlyRiser, nightOwl bool) string {
	switch {
	case earlyRiser:
		return EarlyBird
	case nightOwl:
		return NightOwl
	default:
		return Flexible
	}
}
