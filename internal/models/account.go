package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole says which side of the housing market a person is on.
type UserRole string

const (
	RoleRoommateSeeker UserRole = "roommate_seeker"
	RolePlaceLister    UserRole = "place_lister"
)

// AccountRecord is the canonical record for one person.
// It is created at signup with minimal fields and filled in by onboarding
// steps and in-app edits.
type AccountRecord struct {
	// ID is the stable identity (UUID format). Never changes.
	ID string `json:"id"`

	// Email is the contact identity used for login.
	Email string `json:"email"`

	// Name is the display name.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash set at signup. Never serialized to clients.
	PasswordHash string `json:"passwordHash,omitempty"`

	Bio string `json:"bio,omitempty"`

	// ProfilePicture is the explicit image choice, if any.
	// Takes priority over Photos and ProfilePhotoIndex during resolution.
	ProfilePicture ProfileImage `json:"profilePicture"`

	// Photos are uploaded photo references in upload order.
	Photos []string `json:"photos,omitempty"`

	// ProfilePhotoIndex selects the primary photo in Photos.
	// PersonalityPhotoIndex (-1) selects the personality image instead.
	ProfilePhotoIndex *int `json:"profilePhotoIndex,omitempty"`

	// DateOfBirth is an ISO date (YYYY-MM-DD).
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	University  string    `json:"university,omitempty"`
	Major       string    `json:"major,omitempty"`
	Year        string    `json:"year,omitempty"`
	Location    *Location `json:"location,omitempty"`

	UserRole UserRole `json:"userRole,omitempty"`
	HasPlace bool     `json:"hasPlace"`

	IsVerified bool `json:"isVerified"`
	IsPremium  bool `json:"isPremium"`

	Lifestyle *LifestylePreferences `json:"lifestylePreferences,omitempty"`

	// PersonalityType is one of the sixteen four-letter type codes (e.g. "ENFP").
	PersonalityType   string   `json:"personalityType,omitempty"`
	PersonalityTraits []string `json:"personalityTraits,omitempty"`

	// Budget is the direct budget answer. Preferences.Budget is the older,
	// nested location of the same answer and is only consulted as a fallback.
	Budget *BudgetRange `json:"budget,omitempty"`

	Preferences  *Preferences  `json:"preferences,omitempty"`
	PlaceDetails *PlaceDetails `json:"placeDetails,omitempty"`

	Onboarding OnboardingProgress `json:"onboarding"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// PersonalityPhotoIndex is the ProfilePhotoIndex sentinel meaning
// "use the personality image instead of an uploaded photo".
const PersonalityPhotoIndex = -1

// NormalizeEmail is the stored and indexed form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAccount creates the minimal record written at signup.
func NewAccount(email, name, passwordHash string) *AccountRecord {
	now := time.Now().Unix()
	return &AccountRecord{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: passwordHash,
		UserRole:     RoleRoommateSeeker,
		Onboarding:   NewOnboardingProgress(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Location is a structured location answer.
type Location struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// LifestylePreferences holds raw lifestyle answers.
// The ordinal fields use a 0–3 scale where lower means stricter
// (cleaner, quieter, fewer guests); nil means "not answered".
type LifestylePreferences struct {
	Cleanliness    *int `json:"cleanliness,omitempty"`
	NoiseLevel     *int `json:"noiseLevel,omitempty"`
	GuestFrequency *int `json:"guestFrequency,omitempty"`

	Smoking  bool `json:"smoking"`
	Pets     bool `json:"pets"`
	Drinking bool `json:"drinking"`

	EarlyRiser bool `json:"earlyRiser"`
	NightOwl   bool `json:"nightOwl"`
}

// BudgetRange is a monthly budget in whole dollars.
// Max == 0 means "no upper bound".
type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Preferences is the nested preference block.
type Preferences struct {
	Budget               *BudgetRange `json:"budget,omitempty"`
	RoomType             string       `json:"roomType,omitempty"`
	MoveInDate           string       `json:"moveInDate,omitempty"`
	Duration             string       `json:"duration,omitempty"`
	NotificationsEnabled bool         `json:"notificationsEnabled"`
}

// PlaceDetails describes the place a lister is offering.
type PlaceDetails struct {
	RoomType      string   `json:"roomType,omitempty"`
	Bedrooms      int      `json:"bedrooms,omitempty"`
	Bathrooms     int      `json:"bathrooms,omitempty"`
	MonthlyRent   int      `json:"monthlyRent,omitempty"`
	Address       string   `json:"address,omitempty"`
	MoveInDate    string   `json:"moveInDate,omitempty"`
	LeaseDuration string   `json:"leaseDuration,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	Photos        []string `json:"photos,omitempty"`
	Description   string   `json:"description,omitempty"`
	IsFurnished   bool     `json:"isFurnished"`
}

// StripOnboarding clears every onboarding-derived field while preserving
// identity, contact, credentials and account status.
func (a *AccountRecord) StripOnboarding() {
	*a = AccountRecord{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		UserRole:     RoleRoommateSeeker,
		IsVerified:   a.IsVerified,
		IsPremium:    a.IsPremium,
		Onboarding:   NewOnboardingProgress(),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (a AccountRecord) Clone() AccountRecord {
	out := a
	out.Photos = cloneStrings(a.Photos)
	out.PersonalityTraits = cloneStrings(a.PersonalityTraits)
	if a.ProfilePhotoIndex != nil {
		out.ProfilePhotoIndex = Ptr(*a.ProfilePhotoIndex)
	}
	if a.Location != nil {
		out.Location = Ptr(*a.Location)
	}
	if a.Lifestyle != nil {
		l := *a.Lifestyle
		l.Cleanliness = clonePtr(l.Cleanliness)
		l.NoiseLevel = clonePtr(l.NoiseLevel)
		l.GuestFrequency = clonePtr(l.GuestFrequency)
		out.Lifestyle = &l
	}
	if a.Budget != nil {
		out.Budget = Ptr(*a.Budget)
	}
	if a.Preferences != nil {
		p := *a.Preferences
		if p.Budget != nil {
			p.Budget = Ptr(*p.Budget)
		}
		out.Preferences = &p
	}
	if a.PlaceDetails != nil {
		pd := *a.PlaceDetails
		pd.Amenities = cloneStrings(pd.Amenities)
		pd.Photos = cloneStrings(pd.Photos)
		out.PlaceDetails = &pd
	}
	out.Onboarding.CompletedSteps = append([]Step(nil), a.Onboarding.CompletedSteps...)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return Ptr(*p)
}
