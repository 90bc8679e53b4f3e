package models

// DiscoveryRecord is the browse-ready projection of an AccountRecord.
// It is derived, never authored: see profilesync.Synchronizer.Build.
type DiscoveryRecord struct {
	// ID equals the ID of the AccountRecord this record was derived from.
	ID string `json:"id"`

	Name       string `json:"name"`
	Age        int    `json:"age"`
	Bio        string `json:"bio,omitempty"`
	Gender     string `json:"gender,omitempty"`
	University string `json:"university,omitempty"`
	Major      string `json:"major,omitempty"`
	Year       string `json:"year,omitempty"`

	// Image is a concrete displayable URL or a storable image identifier.
	// It is never empty.
	Image string `json:"image"`

	// Photos mirrors the account's uploaded photos.
	Photos []string `json:"photos,omitempty"`

	// Location is a single display string such as "Austin, TX".
	Location string `json:"location"`

	// Budget is a display string such as "$500-1500" or "Up to $500".
	Budget string `json:"budget"`

	RoomType  string   `json:"roomType"`
	HasPlace  bool     `json:"hasPlace"`
	UserRole  UserRole `json:"userRole,omitempty"`
	Verified  bool     `json:"verified"`
	IsPremium bool     `json:"isPremium"`

	Lifestyle           DiscoveryLifestyle  `json:"lifestylePreferences"`
	PersonalPreferences PersonalPreferences `json:"personalPreferences"`

	PersonalityType   string   `json:"personalityType,omitempty"`
	PersonalityTraits []string `json:"personalityTraits,omitempty"`

	// Place fields are only populated when the account has place details.
	Amenities     []string `json:"amenities,omitempty"`
	Bedrooms      int      `json:"bedrooms,omitempty"`
	Bathrooms     int      `json:"bathrooms,omitempty"`
	MonthlyRent   int      `json:"monthlyRent,omitempty"`
	Address       string   `json:"address,omitempty"`
	MoveInDate    string   `json:"moveInDate,omitempty"`
	LeaseDuration string   `json:"leaseDuration,omitempty"`
	IsFurnished   bool     `json:"isFurnished"`
	RoomPhotos    []string `json:"roomPhotos,omitempty"`
	Description   string   `json:"description,omitempty"`

	// UpdatedAt is the Unix timestamp of the last sync or reset.
	UpdatedAt int64 `json:"updatedAt"`
}

// DiscoveryLifestyle holds canonical lifestyle categories.
// An empty category means the account never answered that question.
type DiscoveryLifestyle struct {
	Cleanliness    string `json:"cleanliness,omitempty"`
	NoiseLevel     string `json:"noiseLevel,omitempty"`
	GuestFrequency string `json:"guestFrequency,omitempty"`
	SleepSchedule  string `json:"sleepSchedule"`
	Smoking        bool   `json:"smoking"`
	Pets           bool   `json:"pets"`
	Drinking       bool   `json:"drinking"`
}

// PersonalPreferences mirrors preference flags used by matching.
type PersonalPreferences struct {
	PetPreference string `json:"petPreference"`
	EarlyRiser    bool   `json:"earlyRiser"`
	NightOwl      bool   `json:"nightOwl"`
}
