package images

import "strings"

var personalityImages = map[string]string{
	"INTJ": "assets/images/personality/intj.png",
	"INTP": "assets/images/personality/intp.png",
	"ENTJ": "assets/images/personality/entj.png",
	"ENTP": "assets/images/personality/entp.png",
	"INFJ": "assets/images/personality/infj.png",
	"INFP": "assets/images/personality/infp.png",
	"ENFJ": "assets/images/personality/enfj.png",
	"ENFP": "assets/images/personality/enfp.png",
	"ISTJ": "assets/images/personality/istj.png",
	"ISFJ": "assets/images/personality/isfj.png",
	"ESTJ": "assets/images/personality/estj.png",
	"ESFJ": "assets/images/personality/esfj.png",
	"ISTP": "assets/images/personality/istp.png",
	"ISFP": "assets/images/personality/isfp.png",
	"ESTP": "assets/images/personality/estp.png",
	"ESFP": "assets/images/personality/esfp.png",
}

// IsPersonalityType reports whether code is one of the sixteen type codes.
// Matching ignores case and surrounding space.
func IsPersonalityType(code string) bool {
	_, ok := personalityImages[normalizeType(code)]
	return ok
}

// PersonalityImageFor returns the bundled image for a type code.
func PersonalityImageFor(code string) (string, bool) {
	asset, ok := personalityImages[normalizeType(code)]
	return asset, ok
}

func normalizeType(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
