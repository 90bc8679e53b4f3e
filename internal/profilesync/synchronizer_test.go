package profilesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimbucha/roomiesBolt-sub000/internal/lifestyle"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type fallbackCounter map[string]int

func (c fallbackCounter) SyncFallback(field string) { c[field]++ }

func newTestSynchronizer(opts ...Option) *Synchronizer {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewSynchronizer(opts...)
}

func fullAccount() models.AccountRecord {
	return models.AccountRecord{
		ID:          "user-1",
		Email:       "maya@example.com",
		Name:        "Maya Lin",
		Bio:         "Grad student, plant person",
		Photos:      []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		DateOfBirth: "2000-08-20",
		Gender:      "female",
		University:  "UT Austin",
		Major:       "Architecture",
		Year:        "Graduate",
		Location:    &models.Location{City: "Austin", State: "TX"},
		UserRole:    models.RolePlaceLister,
		HasPlace:    true,
		IsVerified:  true,
		Lifestyle: &models.LifestylePreferences{
			Cleanliness:    models.Ptr(0),
			NoiseLevel:     models.Ptr(2),
			GuestFrequency: models.Ptr(3),
			Pets:           true,
			NightOwl:       true,
		},
		PersonalityType:   "ENFP",
		PersonalityTraits: []string{"curious", "tidy"},
		Budget:            &models.BudgetRange{Min: 500, Max: 1500},
		PlaceDetails: &models.PlaceDetails{
			RoomType:    "shared",
			Bedrooms:    2,
			Bathrooms:   1,
			MonthlyRent: 900,
			Amenities:   []string{"wifi", "laundry"},
			Photos:      []string{"https://cdn.example.com/room.jpg"},
			IsFurnished: true,
		},
	}
}

func TestBuild(t *testing.T) {
	s := newTestSynchronizer()

	d, err := s.Build(fullAccount())
	require.NoError(t, err)

	assert.Equal(t, "user-1", d.ID)
	assert.Equal(t, "Maya Lin", d.Name)
	assert.Equal(t, 23, d.Age)
	assert.Equal(t, "https://cdn.example.com/a.jpg", d.Image)
	assert.Equal(t, "$500-1500", d.Budget)
	assert.Equal(t, "Austin, TX", d.Location)
	assert.Equal(t, "shared", d.RoomType)
	assert.True(t, d.HasPlace)
	assert.True(t, d.Verified)
	assert.Equal(t, models.DiscoveryLifestyle{
		Cleanliness:    lifestyle.VeryClean,
		NoiseLevel:     lifestyle.ModerateNoise,
		GuestFrequency: lifestyle.Frequently,
		SleepSchedule:  lifestyle.NightOwl,
		Pets:           true,
	}, d.Lifestyle)
	assert.Equal(t, models.PersonalPreferences{PetPreference: lifestyle.AllPetsOK, NightOwl: true}, d.PersonalPreferences)
	assert.Equal(t, []string{"https://cdn.example.com/room.jpg"}, d.RoomPhotos)
	assert.Equal(t, "Grad student, plant person", d.Description)
	assert.Equal(t, []string{"wifi", "laundry"}, d.Amenities)
	assert.Equal(t, fixedNow.Unix(), d.UpdatedAt)
}

func TestBuild_Idempotent(t *testing.T) {
	s := newTestSynchronizer()
	a := fullAccount()

	first, err := s.Build(a)
	require.NoError(t, err)
	second, err := s.Build(a)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_MissingIdentity(t *testing.T) {
	_, err := newTestSynchronizer().Build(models.AccountRecord{Name: "No ID"})
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestBuild_MinimalAccountUsesDefaults(t *testing.T) {
	counter := fallbackCounter{}
	s := newTestSynchronizer(WithFallbackRecorder(counter))

	d, err := s.Build(models.AccountRecord{ID: "user-2", Name: "Sam"})
	require.NoError(t, err)

	assert.Equal(t, DefaultBudget, d.Budget)
	assert.Equal(t, DefaultLocation, d.Location)
	assert.Equal(t, DefaultRoomType, d.RoomType)
	assert.Equal(t, DefaultAge, d.Age)
	assert.Equal(t, models.LocalDefaultMarker, d.Image)
	assert.Equal(t, lifestyle.Flexible, d.Lifestyle.SleepSchedule)
	assert.Empty(t, d.Lifestyle.Cleanliness)
	assert.Equal(t, lifestyle.NoPets, d.PersonalPreferences.PetPreference)
	assert.Equal(t, fallbackCounter{"budget": 1, "location": 1, "age": 1}, counter)
}

func TestBudgetString(t *testing.T) {
	tests := []struct {
		name   string
		acct   models.AccountRecord
		want   string
		wantOK bool
	}{
		{"range", models.AccountRecord{Budget: &models.BudgetRange{Min: 500, Max: 1500}}, "$500-1500", true},
		{"open ended", models.AccountRecord{Budget: &models.BudgetRange{Min: 500}}, "Up to $500", true},
		{
			"nested preferences budget",
			models.AccountRecord{Preferences: &models.Preferences{Budget: &models.BudgetRange{Min: 700, Max: 1200}}},
			"$700-1200", true,
		},
		{
			"direct budget wins",
			models.AccountRecord{
				Budget:      &models.BudgetRange{Min: 1, Max: 2},
				Preferences: &models.Preferences{Budget: &models.BudgetRange{Min: 700, Max: 1200}},
			},
			"$1-2", true,
		},
		{"default", models.AccountRecord{}, DefaultBudget, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BudgetString(tt.acct)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRoomType(t *testing.T) {
	tests := []struct {
		name string
		acct models.AccountRecord
		want string
	}{
		{"default", models.AccountRecord{}, "private"},
		{"preferences", models.AccountRecord{Preferences: &models.Preferences{RoomType: "shared"}}, "shared"},
		{
			"place details win",
			models.AccountRecord{
				Preferences:  &models.Preferences{RoomType: "shared"},
				PlaceDetails: &models.PlaceDetails{RoomType: "studio"},
			},
			"studio",
		},
		{"blank place details ignored", models.AccountRecord{PlaceDetails: &models.PlaceDetails{}}, "private"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoomType(tt.acct))
		})
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		name string
		loc  *models.Location
		want string
	}{
		{"nil", nil, DefaultLocation},
		{"blank", &models.Location{City: "  "}, DefaultLocation},
		{"city only", &models.Location{City: "Denver"}, "Denver"},
		{"state only", &models.Location{State: "CO"}, "CO"},
		{"both", &models.Location{City: "Denver", State: "CO"}, "Denver, CO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := LocationString(models.AccountRecord{Location: tt.loc})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		name   string
		dob    string
		want   int
		wantOK bool
	}{
		{"birthday passed", "2000-01-10", 24, true},
		{"birthday today", "2000-06-15", 24, true},
		{"birthday tomorrow", "2000-06-16", 23, true},
		{"later month", "2000-12-01", 23, true},
		{"missing", "", DefaultAge, false},
		{"garbage", "not a date", DefaultAge, false},
		{"future", "2030-01-01", DefaultAge, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Age(tt.dob, fixedNow)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRoomPhotosAndDescription(t *testing.T) {
	a := models.AccountRecord{Bio: "bio", Photos: []string{"p1"}}
	assert.Nil(t, RoomPhotos(a))
	assert.Empty(t, Description(a))

	a.PlaceDetails = &models.PlaceDetails{}
	assert.Equal(t, []string{"p1"}, RoomPhotos(a))
	assert.Equal(t, "bio", Description(a))

	a.PlaceDetails = &models.PlaceDetails{Photos: []string{"room"}, Description: "Sunny room"}
	assert.Equal(t, []string{"room"}, RoomPhotos(a))
	assert.Equal(t, "Sunny room", Description(a))
}

func TestImageIdentifier(t *testing.T) {
	tests := []struct {
		name string
		acct models.AccountRecord
		want string
	}{
		{"personality", models.AccountRecord{PersonalityType: "ENFP"}, models.PersonalityImageMarker},
		{"local default", models.AccountRecord{}, models.LocalDefaultMarker},
		{"url", models.AccountRecord{ProfilePicture: models.ImageURL("https://x/y.png")}, "https://x/y.png"},
		{"asset passthrough", models.AccountRecord{ProfilePicture: models.AssetImage("bundle:42")}, "bundle:42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageIdentifier(tt.acct)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatch_OnlyTouchesDerivedFields(t *testing.T) {
	s := newTestSynchronizer()
	a := fullAccount()
	d, err := s.Build(a)
	require.NoError(t, err)

	// Simulate a stale field that the patch must not touch.
	d.University = "stale"

	patch := models.AccountPatch{
		Budget:    &models.BudgetRange{Min: 800},
		Lifestyle: &models.LifestylePatch{EarlyRiser: models.Ptr(true), Pets: models.Ptr(false)},
	}
	patch.ApplyTo(&a)
	s.Patch(&d, a, patch)

	assert.Equal(t, "Up to $800", d.Budget)
	assert.Equal(t, lifestyle.EarlyBird, d.Lifestyle.SleepSchedule)
	assert.False(t, d.Lifestyle.Pets)
	assert.Equal(t, lifestyle.NoPets, d.PersonalPreferences.PetPreference)
	assert.Equal(t, "stale", d.University)
}

func TestPatch_PlaceDetailsUpdatesRoomType(t *testing.T) {
	s := newTestSynchronizer()
	a := models.AccountRecord{ID: "user-3", Name: "Lee"}
	d, err := s.Build(a)
	require.NoError(t, err)

	patch := models.AccountPatch{
		HasPlace:     models.Ptr(true),
		PlaceDetails: &models.PlaceDetails{RoomType: "studio", Amenities: []string{"parking"}, MonthlyRent: 1100},
	}
	patch.ApplyTo(&a)
	s.Patch(&d, a, patch)

	assert.True(t, d.HasPlace)
	assert.Equal(t, "studio", d.RoomType)
	assert.Equal(t, []string{"parking"}, d.Amenities)
	assert.Equal(t, 1100, d.MonthlyRent)
}

func TestResetDiscoveryRecord(t *testing.T) {
	s := newTestSynchronizer()
	d, err := s.Build(fullAccount())
	require.NoError(t, err)

	s.ResetDiscoveryRecord(d.ID).ApplyTo(&d)

	assert.Equal(t, "user-1", d.ID)
	assert.Equal(t, "Maya Lin", d.Name)
	assert.Equal(t, DefaultPlaceholderImage, d.Image)
	assert.Equal(t, DefaultBudget, d.Budget)
	assert.Equal(t, DefaultLocation, d.Location)
	assert.Equal(t, DefaultRoomType, d.RoomType)
	assert.Equal(t, models.DiscoveryLifestyle{
		Cleanliness:    lifestyle.Moderate,
		NoiseLevel:     lifestyle.ModerateNoise,
		GuestFrequency: lifestyle.Occasionally,
		SleepSchedule:  lifestyle.Flexible,
	}, d.Lifestyle)
	assert.Empty(t, d.Photos)
	assert.Empty(t, d.PersonalityTraits)
	assert.Empty(t, d.Amenities)
	assert.False(t, d.HasPlace)
}

func TestResetDiscoveryRecord_NewRecord(t *testing.T) {
	var d models.DiscoveryRecord
	newTestSynchronizer().ResetDiscoveryRecord("user-9").ApplyTo(&d)
	assert.Equal(t, "user-9", d.ID)
	assert.Equal(t, DefaultBudget, d.Budget)
}

func TestImageIdentifier_NoUsableImage(t *testing.T) {
	counter := fallbackCounter{}
	s := newTestSynchronizer(WithFallbackRecorder(counter))
	a := models.AccountRecord{ID: "user-4", ProfilePicture: models.ImageURL(" ")}

	got, err := ImageIdentifier(a)
	assert.ErrorIs(t, err, ErrNoUsableImage)
	assert.Equal(t, DefaultPlaceholderImage, got)

	d, err := s.Build(a)
	require.NoError(t, err)
	assert.Equal(t, DefaultPlaceholderImage, d.Image)
	assert.Equal(t, 1, counter["image"])
}
