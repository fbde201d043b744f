package detection

import "strings"

// Language labels reported alongside the classification.
const (
	LanguageHindi   = "Hindi"
	LanguageEnglish = "English"
	LanguageUnknown = "Unknown"
)

var hindiMarkers = []string{"hindi", "hi_", "_hi", "hin"}
var englishMarkers = []string{"english", "en_", "_en", "eng"}

// DetectLanguageFromPath guesses the language from markers in a path or URL
// string. This is a coarse best-effort signal, independent of the
// classification decision; opaque URLs without naming conventions come back
// Unknown.
func DetectLanguageFromPath(path string) string {
	lower := strings.ToLower(path)
	for _, marker := range hindiMarkers {
		if strings.Contains(lower, marker) {
			return LanguageHindi
		}
	}
	for _, marker := range englishMarkers {
		if strings.Contains(lower, marker) {
			return LanguageEnglish
		}
	}
	return LanguageUnknown
}

// DetectLanguageFromText guesses the language of a transcript by the ratio of
// Devanagari characters to alphabetic characters. Kept for future
// transcript-based detection.
func DetectLanguageFromText(text string) string {
	if text == "" {
		return LanguageUnknown
	}

	var hindi, english int
	for _, r := range text {
		switch {
		case r >= 0x0900 && r <= 0x097F:
			hindi++
		case r < 128 && ((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')):
			english++
		}
	}

	total := hindi + english
	if total == 0 {
		return LanguageUnknown
	}

	switch {
	case float64(hindi)/float64(total) > 0.3:
		return LanguageHindi
	case english > hindi:
		return LanguageEnglish
	default:
		return LanguageUnknown
	}
}
