package profilesync

import (
	"github.com/kimbucha/roomiesBolt-sub000/internal/lifestyle"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

// Reset is the neutral discovery shape an identity returns to after its
// onboarding is reset. It is merged into the existing record; the record is
// never deleted.
type Reset struct {
	ID                  string
	Image               string
	Age                 int
	Budget              string
	Location            string
	RoomType            string
	Lifestyle           models.DiscoveryLifestyle
	PersonalPreferences models.PersonalPreferences
	UpdatedAt           int64
}

// ResetDiscoveryRecord returns the neutral default for id.
func (s *Synchronizer) ResetDiscoveryRecord(id string) Reset {
	return Reset{
		ID:       id,
		Image:    DefaultPlaceholderImage,
		Age:      DefaultAge,
		Budget:   DefaultBudget,
		Location: DefaultLocation,
		RoomType: DefaultRoomType,
		Lifestyle: models.DiscoveryLifestyle{
			Cleanliness:    lifestyle.Moderate,
			NoiseLevel:     lifestyle.ModerateNoise,
			GuestFrequency: lifestyle.Occasionally,
			SleepSchedule:  lifestyle.Flexible,
		},
		PersonalPreferences: models.PersonalPreferences{PetPreference: lifestyle.NoPets},
		UpdatedAt:           s.now().Unix(),
	}
}

// ApplyTo merges the reset into d. Name and identity are kept; onboarding
// answers, photos and traits are cleared.
func (r Reset) ApplyTo(d *models.DiscoveryRecord) {
	if d.ID == "" {
		d.ID = r.ID
	}
	d.Image = r.Image
	d.Age = r.Age
	d.Budget = r.Budget
	d.Location = r.Location
	d.RoomType = r.RoomType
	d.Lifestyle = r.Lifestyle
	d.PersonalPreferences = r.PersonalPreferences
	d.UpdatedAt = r.UpdatedAt

	d.Bio, d.Gender, d.University, d.Major, d.Year = "", "", "", "", ""
	d.Photos = nil
	d.PersonalityType = ""
	d.PersonalityTraits = nil
	d.HasPlace = false
	d.UserRole = models.RoleRoommateSeeker
	setPlace(d, models.AccountRecord{})
}
