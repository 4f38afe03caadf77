package ocr

import "strings"

// Recognition language codes
const (
	VisionChinese    = "zh-Hans"
	VisionEnglish    = "en-US"
	TesseractChinese = "chi_sim"
	TesseractEnglish = "eng"
)

// VisionLanguages returns the Vision recognition languages for a hint. An
// absent or unrecognized hint requests Chinese then English.
func VisionLanguages(hint string) []string {
	switch prefix(hint) {
	case "zh":
		return []string{VisionChinese}
	case "en":
		return []string{VisionEnglish}
	default:
		return []string{VisionChinese, VisionEnglish}
	}
}

// TesseractLanguage returns the tesseract -l value for a hint. Unrecognized
// hints pass through unchanged; an empty result means the flag is omitted.
func TesseractLanguage(hint string) string {
	switch prefix(hint) {
	case "zh":
		return TesseractChinese
	case "en":
		return TesseractEnglish
	default:
		return strings.TrimSpace(hint)
	}
}

func prefix(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case strings.HasPrefix(h, "zh"):
		return "zh"
	case strings.HasPrefix(h, "en"):
		return "en"
	}
	return ""
}
