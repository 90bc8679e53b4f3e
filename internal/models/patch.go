package models

// AccountPatch is a partial account mutation. A nil field is not part of the
// mutation: it is neither validated nor merged. Block fields (Location,
// Budget, Preferences, PlaceDetails) replace the whole block; Lifestyle is
// merged field by field.
type AccountPatch struct {
	Email             *string       `json:"email,omitempty"`
	Name              *string       `json:"name,omitempty"`
	Bio               *string       `json:"bio,omitempty"`
	ProfilePicture    *ProfileImage `json:"profilePicture,omitempty"`
	Photos            []string      `json:"photos,omitempty"`
	ProfilePhotoIndex *int          `json:"profilePhotoIndex,omitempty"`

	DateOfBirth *string   `json:"dateOfBirth,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	University  *string   `json:"university,omitempty"`
	Major       *string   `json:"major,omitempty"`
	Year        *string   `json:"year,omitempty"`
	Location    *Location `json:"location,omitempty"`

	UserRole *UserRole `json:"userRole,omitempty"`
	HasPlace *bool     `json:"hasPlace,omitempty"`

	IsVerified *bool `json:"isVerified,omitempty"`
	IsPremium  *bool `json:"isPremium,omitempty"`

	Lifestyle *LifestylePatch `json:"lifestylePreferences,omitempty"`

	PersonalityType   *string  `json:"personalityType,omitempty"`
	PersonalityTraits []string `json:"personalityTraits,omitempty"`

	Budget               *BudgetRange  `json:"budget,omitempty"`
	Preferences          *Preferences  `json:"preferences,omitempty"`
	PlaceDetails         *PlaceDetails `json:"placeDetails,omitempty"`
	NotificationsEnabled *bool         `json:"notificationsEnabled,omitempty"`
}

// LifestylePatch is the partial form of LifestylePreferences.
type LifestylePatch struct {
	Cleanliness    *int  `json:"cleanliness,omitempty"`
	NoiseLevel     *int  `json:"noiseLevel,omitempty"`
	GuestFrequency *int  `json:"guestFrequency,omitempty"`
	Smoking        *bool `json:"smoking,omitempty"`
	Pets           *bool `json:"pets,omitempty"`
	Drinking       *bool `json:"drinking,omitempty"`
	EarlyRiser     *bool `json:"earlyRiser,omitempty"`
	NightOwl       *bool `json:"nightOwl,omitempty"`
}

// HasSchedule reports whether the patch answers the sleep-schedule question.
func (l LifestylePatch) HasSchedule() bool {
	return l.EarlyRiser != nil || l.NightOwl != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Email == nil && p.Name == nil && p.Bio == nil && p.ProfilePicture == nil &&
		p.Photos == nil && p.ProfilePhotoIndex == nil && p.DateOfBirth == nil &&
		p.Gender == nil && p.University == nil && p.Major == nil && p.Year == nil &&
		p.Location == nil && p.UserRole == nil && p.HasPlace == nil &&
		p.IsVerified == nil && p.IsPremium == nil && p.Lifestyle == nil &&
		p.PersonalityType == nil && p.PersonalityTraits == nil && p.Budget == nil &&
		p.Preferences == nil && p.PlaceDetails == nil && p.NotificationsEnabled == nil
}

// ApplyTo merges the present fields of p into a.
func (p AccountPatch) ApplyTo(a *AccountRecord) {
	if p.Email != nil {
		a.Email = NormalizeEmail(*p.Email)
	}
	setIf(&a.Name, p.Name)
	setIf(&a.Bio, p.Bio)
	setIf(&a.ProfilePicture, p.ProfilePicture)
	if p.Photos != nil {
		a.Photos = cloneStrings(p.Photos)
	}
	if p.ProfilePhotoIndex != nil {
		a.ProfilePhotoIndex = Ptr(*p.ProfilePhotoIndex)
	}
	setIf(&a.DateOfBirth, p.DateOfBirth)
	setIf(&a.Gender, p.Gender)
	setIf(&a.University, p.University)
	setIf(&a.Major, p.Major)
	setIf(&a.Year, p.Year)
	if p.Location != nil {
		a.Location = Ptr(*p.Location)
	}
	setIf(&a.UserRole, p.UserRole)
	setIf(&a.HasPlace, p.HasPlace)
	setIf(&a.IsVerified, p.IsVerified)
	setIf(&a.IsPremium, p.IsPremium)
	if p.Lifestyle != nil {
		if a.Lifestyle == nil {
			a.Lifestyle = &LifestylePreferences{}
		}
		p.Lifestyle.applyTo(a.Lifestyle)
	}
	setIf(&a.PersonalityType, p.PersonalityType)
	if p.PersonalityTraits != nil {
		a.PersonalityTraits = cloneStrings(p.PersonalityTraits)
	}
	if p.Budget != nil {
		a.Budget = Ptr(*p.Budget)
	}
	if p.Preferences != nil {
		prefs := *p.Preferences
		if prefs.Budget != nil {
			prefs.Budget = Ptr(*prefs.Budget)
		}
		a.Preferences = &prefs
	}
	if p.PlaceDetails != nil {
		pd := *p.PlaceDetails
		pd.Amenities = cloneStrings(pd.Amenities)
		pd.Photos = cloneStrings(pd.Photos)
		a.PlaceDetails = &pd
	}
	if p.NotificationsEnabled != nil {
		if a.Preferences == nil {
			a.Preferences = &Preferences{}
		}
		a.Preferences.NotificationsEnabled = *p.NotificationsEnabled
	}
}

func (l LifestylePatch) applyTo(dst *LifestylePreferences) {
	if l.Cleanliness != nil {
		dst.Cleanliness = Ptr(*l.Cleanliness)
	}
	if l.NoiseLevel != nil {
		dst.NoiseLevel = Ptr(*l.NoiseLevel)
	}
	if l.GuestFrequency != nil {
		dst.GuestFrequency = Ptr(*l.GuestFrequency)
	}
	setIf(&dst.Smoking, l.Smoking)
	setIf(&dst.Pets, l.Pets)
	setIf(&dst.Drinking, l.Drinking)
	setIf(&dst.EarlyRiser, l.EarlyRiser)
	setIf(&dst.NightOwl, l.NightOwl)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
