package gpx

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DevicePattern maps a filename regex to a canonical device name.
// Patterns are tried in order; put the more specific ones first.
type DevicePattern struct {
	Pattern string `koanf:"pattern" json:"pattern"`
	Name    string `koanf:"name" json:"name"`
}

// DefaultDevicePatterns covers the devices used in the field campaigns.
func DefaultDevicePatterns() []DevicePattern {
	return []DevicePattern{
		{Pattern: `fenix\s*5\+?`, Name: "Garmin_Fenix_5x"},
		{Pattern: `fenix\s*3`, Name: "Garmin_Fenix_3"},
		{Pattern: `huawei\s*gt\s*5`, Name: "Huawei_GT5"},
		{Pattern: `gt\s*5`, Name: "Huawei_GT5"},
		{Pattern: `iphone\s*12`, Name: "Iphone_12"},
	}
}

var sanitizeRe = regexp.MustCompile(`[^0-9A-Za-z]+`)

// DeviceName derives a normalized device name from a GPX filename. The
// first pattern matching the file stem (case-insensitively) wins; when
// none match, the sanitized stem itself is returned so every file still
// gets a stable source identifier.
func DeviceName(path string, patterns []DevicePattern) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, dp := range patterns {
		re, err := regexp.Compile(`(?i)` + dp.Pattern)
		if err != nil {
			continue // a broken configured pattern should not kill the run
		}
		if re.MatchString(stem) {
			return dp.Name
		}
	}
	return strings.Trim(sanitizeRe.ReplaceAllString(stem, "_"), "_")
}
