package domain

import "strings"

// Quality selects which bitrate variant to pick when a provider offers
// several encodings of the same track.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality maps free-form input to a Quality, defaulting to high.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow
	case "medium", "mid":
		return QualityMedium
	default:
		return QualityHigh
	}
}

// VariantIndex returns the index to pick from a list of n variants sorted
// by descending bitrate: the first for high, the last for low, and the
// integer midpoint for medium.
func (q Quality) VariantIndex(n int) int {
	switch q {
	case QualityLow:
		return n - 1
	case QualityMedium:
		return n / 2
	default:
		return 0
	}
}
