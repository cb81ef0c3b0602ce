package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// Allow alphanumeric, underscore, hyphen, dot - common in transit IDs
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateCoordinates validates a lat/lon pair. The null island (0, 0) is treated as missing.
func ValidateCoordinates(lat, lon float64) error {
	if lat == 0 && lon == 0 {
		return errors.New("coordinates missing")
	}
	if err := ValidateLatitude(lat); err != nil {
		return err
	}
	return ValidateLongitude(lon)
}

// SanitizeInput removes HTML tags and surrounding whitespace from free text
// taken from upstream feeds before it is echoed back to clients.
func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, ""))
}
