package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Persisted encodings of the non-URL image choices. These strings only ever
// appear in serialized records; in memory the choice is a ProfileImageKind.
const (
	PersonalityImageMarker = "personality_image"
	LocalDefaultMarker     = "local://default-avatar"

	assetPrefix = "asset://"
)

// ProfileImageKind discriminates the ProfileImage union.
type ProfileImageKind int

const (
	// ProfileImageUnset means no explicit choice was made.
	ProfileImageUnset ProfileImageKind = iota
	// ProfileImageURL is a direct URL or uploaded-photo reference.
	ProfileImageURL
	// ProfileImagePersonality asks for the image of the account's personality type.
	ProfileImagePersonality
	// ProfileImageLocalDefault asks for the bundled default avatar.
	ProfileImageLocalDefault
	// ProfileImageAsset is an opaque, already-resolved image handle that is
	// passed through untouched.
	ProfileImageAsset
)

func (k ProfileImageKind) String() string {
	switch k {
	case ProfileImageURL:
		return "url"
	case ProfileImagePersonality:
		return "personality"
	case ProfileImageLocalDefault:
		return "local_default"
	case ProfileImageAsset:
		return "asset"
	default:
		return "unset"
	}
}

// ProfileImage is an explicit profile-picture choice on an account.
type ProfileImage struct {
	Kind ProfileImageKind

	// Ref is the URL for ProfileImageURL or the handle for ProfileImageAsset.
	// It is empty for every other kind.
	Ref string
}

// ImageURL returns a ProfileImage pointing at url.
func ImageURL(url string) ProfileImage {
	return ProfileImage{Kind: ProfileImageURL, Ref: url}
}

// PersonalityImage returns the "use my personality image" choice.
func PersonalityImage() ProfileImage {
	return ProfileImage{Kind: ProfileImagePersonality}
}

// LocalDefaultImage returns the "use the bundled default" choice.
func LocalDefaultImage() ProfileImage {
	return ProfileImage{Kind: ProfileImageLocalDefault}
}

// AssetImage returns an opaque pre-resolved image handle.
func AssetImage(handle string) ProfileImage {
	return ProfileImage{Kind: ProfileImageAsset, Ref: handle}
}

// IsSet reports whether an explicit choice exists.
func (p ProfileImage) IsSet() bool {
	return p.Kind != ProfileImageUnset
}

// String returns the storable identifier for p, or "" when unset.
// ParseProfileImage(p.String()) == p for every value.
func (p ProfileImage) String() string {
	switch p.Kind {
	case ProfileImageURL:
		return p.Ref
	case ProfileImagePersonality:
		return PersonalityImageMarker
	case ProfileImageLocalDefault:
		return LocalDefaultMarker
	case ProfileImageAsset:
		return assetPrefix + p.Ref
	default:
		return ""
	}
}

// ParseProfileImage decodes a storable identifier. Marker strings map back
// to their kinds; any other non-blank string is treated as a URL.
func ParseProfileImage(s string) ProfileImage {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ProfileImage{}
	case s == PersonalityImageMarker:
		return PersonalityImage()
	case s == LocalDefaultMarker:
		return LocalDefaultImage()
	case strings.HasPrefix(s, assetPrefix):
		return AssetImage(strings.TrimPrefix(s, assetPrefix))
	default:
		return ImageURL(s)
	}
}

// MarshalJSON encodes an unset image as null and everything else as its
// storable identifier.
func (p ProfileImage) MarshalJSON() ([]byte, error) {
	if !p.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts null or a storable identifier string.
func (p *ProfileImage) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ProfileImage{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("profile image must be a string: %w", err)
	}
	*p = ParseProfileImage(s)
	return nil
}
