// Package images picks the single image that represents a person.
//
// Resolve walks a fixed priority order and always returns exactly one of
// four outcomes. ToStorableIdentifier maps a resolution back to the string
// that, stored as the account's explicit profile picture, resolves to the
// same outcome again.
package images

import (
	"strings"
	"unicode"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

// Type is the kind of image a resolution produced.
type Type string

const (
	UploadedPhoto    Type = "uploaded_photo"
	PersonalityImage Type = "personality_image"
	LocalDefault     Type = "local_default"
	InitialsFallback Type = "initials_fallback"
)

// LocalDefaultAsset is the bundled default avatar.
const LocalDefaultAsset = "assets/images/avatars/default-user.png"

// Source locates a displayable image. URL is set for uploaded photos, Asset
// for bundled images and opaque handles; both are empty for initials.
type Source struct {
	URL   string `json:"url,omitempty"`
	Asset string `json:"asset,omitempty"`
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Type   Type   `json:"type"`
	Source Source `json:"source"`

	// PersonalityType is set when Type is PersonalityImage.
	PersonalityType string `json:"personalityType,omitempty"`

	// FallbackInitials is set when Type is InitialsFallback.
	FallbackInitials string `json:"fallbackInitials,omitempty"`
}

// Resolve selects the image for acct. The first matching rule wins:
//
//  1. an explicit profile picture (personality marker only counts when the
//     account has a recognized personality type)
//  2. a valid ProfilePhotoIndex, where -1 selects the personality image
//  3. the first uploaded photo
//  4. the personality image
//  5. the local default
//
// A nil account resolves to initials "?".
func Resolve(acct *models.AccountRecord) Resolution {
	if acct == nil {
		return Resolution{Type: InitialsFallback, FallbackInitials: Initials("")}
	}
	if r, ok := fromExplicit(acct); ok {
		return r
	}
	if r, ok := fromPhotoIndex(acct); ok {
		return r
	}
	if len(acct.Photos) > 0 {
		return uploaded(acct.Photos[0])
	}
	if r, ok := personality(acct.PersonalityType); ok {
		return r
	}
	return localDefault()
}

func fromExplicit(acct *models.AccountRecord) (Resolution, bool) {
	pic := acct.ProfilePicture
	switch pic.Kind {
	case models.ProfileImagePersonality:
		return personality(acct.PersonalityType)
	case models.ProfileImageLocalDefault:
		return localDefault(), true
	case models.ProfileImageURL:
		return uploaded(pic.Ref), true
	case models.ProfileImageAsset:
		return Resolution{Type: UploadedPhoto, Source: Source{Asset: pic.Ref}}, true
	default:
		return Resolution{}, false
	}
}

func fromPhotoIndex(acct *models.AccountRecord) (Resolution, bool) {
	if acct.ProfilePhotoIndex == nil {
		return Resolution{}, false
	}
	idx := *acct.ProfilePhotoIndex
	if idx == models.PersonalityPhotoIndex {
		return personality(acct.PersonalityType)
	}
	if idx >= 0 && idx < len(acct.Photos) {
		return uploaded(acct.Photos[idx]), true
	}
	return Resolution{}, false
}

func personality(code string) (Resolution, bool) {
	asset, ok := PersonalityImageFor(code)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		Type:            PersonalityImage,
		Source:          Source{Asset: asset},
		PersonalityType: normalizeType(code),
	}, true
}

func uploaded(url string) Resolution {
	return Resolution{Type: UploadedPhoto, Source: Source{URL: url}}
}

func localDefault() Resolution {
	return Resolution{Type: LocalDefault, Source: Source{Asset: LocalDefaultAsset}}
}

// ToStorableIdentifier returns the identifier to persist for r. ok is false
// for initials and for uploaded photos without an extractable URL.
func ToStorableIdentifier(r Resolution) (id string, ok bool) {
	switch r.Type {
	case PersonalityImage:
		return models.PersonalityImage().String(), true
	case LocalDefault:
		return models.LocalDefaultImage().String(), true
	case UploadedPhoto:
		if url := strings.TrimSpace(r.Source.URL); url != "" {
			return url, true
		}
		return "", false
	default:
		return "", false
	}
}

// Initials returns display initials for name: "?" when blank, the first
// letter of a single word, or the first letters of the first and last words.
func Initials(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return "?"
	case 1:
		return firstLetter(words[0])
	default:
		return firstLetter(words[0]) + firstLetter(words[len(words)-1])
	}
}

func firstLetter(word string) string {
	for _, r := range word {
		return string(unicode.ToUpper(r))
	}
	return ""
}
