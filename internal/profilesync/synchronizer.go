// Package profilesync derives discovery records from account records.
//
// Every derived field has its own fallback function (ImageIdentifier,
// BudgetString, ...). Build composes all of them; Patch recomputes only the
// fields an account mutation can affect.
package profilesync

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

// ErrMissingIdentity is returned when an account has no ID.
var ErrMissingIdentity = errors.New("account has no identity")

// FallbackRecorder is notified whenever a field falls back to its default.
type FallbackRecorder interface {
	SyncFallback(field string)
}

// Synchronizer builds and patches discovery records.
type Synchronizer struct {
	now      func() time.Time
	recorder FallbackRecorder
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock overrides the clock used for ages and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithFallbackRecorder reports default fallbacks to r.
func WithFallbackRecorder(r FallbackRecorder) Option {
	return func(s *Synchronizer) { s.recorder = r }
}

// NewSynchronizer creates a Synchronizer using the wall clock.
func NewSynchronizer(opts ...Option) *Synchronizer {
	s := &Synchronizer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build derives the full discovery record for a.
func (s *Synchronizer) Build(a models.AccountRecord) (models.DiscoveryRecord, error) {
	if strings.TrimSpace(a.ID) == "" {
		return models.DiscoveryRecord{}, ErrMissingIdentity
	}

	d := models.DiscoveryRecord{
		ID:                a.ID,
		Name:              a.Name,
		Bio:               a.Bio,
		Gender:            a.Gender,
		University:        a.University,
		Major:             a.Major,
		Year:              a.Year,
		Photos:            cloneStrings(a.Photos),
		HasPlace:          a.HasPlace,
		UserRole:          a.UserRole,
		Verified:          a.IsVerified,
		IsPremium:         a.IsPremium,
		PersonalityType:   a.PersonalityType,
		PersonalityTraits: cloneStrings(a.PersonalityTraits),
	}
	d.Image = s.image(a)
	d.Age = s.age(a)
	d.Budget = s.budget(a)
	d.Location = s.location(a)
	d.RoomType = RoomType(a)
	d.Lifestyle = Lifestyle(a)
	d.PersonalPreferences = Preferences(a)
	setPlace(&d, a)
	d.UpdatedAt = s.now().Unix()

	return d, nil
}

// Patch updates d in place from the already-merged account a, touching only
// the fields derived from the account fields present in p.
func (s *Synchronizer) Patch(d *models.DiscoveryRecord, a models.AccountRecord, p models.AccountPatch) {
	if p.Name != nil {
		d.Name = a.Name
	}
	if p.Bio != nil {
		d.Bio = a.Bio
		d.Description = Description(a)
	}
	if p.ProfilePicture != nil || p.Photos != nil || p.ProfilePhotoIndex != nil || p.PersonalityType != nil {
		d.Image = s.image(a)
	}
	if p.Photos != nil {
		d.Photos = cloneStrings(a.Photos)
		d.RoomPhotos = RoomPhotos(a)
	}
	if p.PersonalityType != nil {
		d.PersonalityType = a.PersonalityType
	}
	if p.PersonalityTraits != nil {
		d.PersonalityTraits = cloneStrings(a.PersonalityTraits)
	}
	if p.DateOfBirth != nil {
		d.Age = s.age(a)
	}
	if p.Gender != nil {
		d.Gender = a.Gender
	}
	if p.University != nil {
		d.University = a.University
	}
	if p.Major != nil {
		d.Major = a.Major
	}
	if p.Year != nil {
		d.Year = a.Year
	}
	if p.Location != nil {
		d.Location = s.location(a)
	}
	if p.UserRole != nil {
		d.UserRole = a.UserRole
	}
	if p.HasPlace != nil {
		d.HasPlace = a.HasPlace
	}
	if p.IsVerified != nil {
		d.Verified = a.IsVerified
	}
	if p.IsPremium != nil {
		d.IsPremium = a.IsPremium
	}
	if p.Lifestyle != nil {
		d.Lifestyle = Lifestyle(a)
		d.PersonalPreferences = Preferences(a)
	}
	if p.Budget != nil || p.Preferences != nil {
		d.Budget = s.budget(a)
	}
	if p.Preferences != nil || p.PlaceDetails != nil {
		d.RoomType = RoomType(a)
	}
	if p.PlaceDetails != nil {
		setPlace(d, a)
	}
	d.UpdatedAt = s.now().Unix()
}

func setPlace(d *models.DiscoveryRecord, a models.AccountRecord) {
	d.RoomPhotos = RoomPhotos(a)
	d.Description = Description(a)
	pd := a.PlaceDetails
	if pd == nil {
		d.Amenities = nil
		d.Bedrooms, d.Bathrooms, d.MonthlyRent = 0, 0, 0
		d.Address, d.MoveInDate, d.LeaseDuration = "", "", ""
		d.IsFurnished = false
		return
	}
	d.Amenities = cloneStrings(pd.Amenities)
	d.Bedrooms = pd.Bedrooms
	d.Bathrooms = pd.Bathrooms
	d.MonthlyRent = pd.MonthlyRent
	d.Address = pd.Address
	d.MoveInDate = pd.MoveInDate
	d.LeaseDuration = pd.LeaseDuration
	d.IsFurnished = pd.IsFurnished
}

func (s *Synchronizer) image(a models.AccountRecord) string {
	id, err := ImageIdentifier(a)
	if err != nil {
		slog.Warn("Falling back to placeholder image", "user_id", a.ID, "error", err)
		s.fellBack("image")
	}
	return id
}

func (s *Synchronizer) budget(a models.AccountRecord) string {
	b, ok := BudgetString(a)
	if !ok {
		s.fellBack("budget")
	}
	return b
}

func (s *Synchronizer) location(a models.AccountRecord) string {
	l, ok := LocationString(a)
	if !ok {
		s.fellBack("location")
	}
	return l
}

func (s *Synchronizer) age(a models.AccountRecord) int {
	age, ok := Age(a.DateOfBirth, s.now())
	if !ok {
		s.fellBack("age")
	}
	return age
}

func (s *Synchronizer) fellBack(field string) {
	if s.recorder != nil {
		s.recorder.SyncFallback(field)
	}
}
