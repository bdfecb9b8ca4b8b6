package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gratefultolord/astro_bot/internal/db"
)

var (
	offsetPattern    = regexp.MustCompile(`^[+-]\d{1,2}$`)
	birthTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ToLower(text)

	return text
}

// ParseProfileDetails reads "name, birthday, birthplace". The birthplace takes
// the rest of the line, so it may contain commas. Values are kept verbatim
// apart from surrounding whitespace.
func ParseProfileDetails(text string) (db.Fields, bool) {
	parts := strings.SplitN(text, ",", 3)
	if len(parts) != 3 {
		return nil, false
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil, false
		}
	}

	return db.Fields{
		db.FieldName:       parts[0],
		db.FieldBirthday:   parts[1],
		db.FieldBirthplace: parts[2],
	}, true
}

func IsValidBirthTime(text string) bool {
	return birthTimePattern.MatchString(text)
}

// IsValidTimezone accepts IANA zone ids and ±H / ±HH hour offsets.
func IsValidTimezone(tz string) bool {
	_, err := ResolveLocation(tz)
	return err == nil
}

var errInvalidTimezone = errors.New("invalid timezone")

// ResolveLocation turns a stored timezone into a location. Empty means UTC.
func ResolveLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}

	if offsetPattern.MatchString(tz) {
		hours, err := strconv.Atoi(tz)
		if err != nil || hours < -12 || hours > 14 {
			return nil, fmt.Errorf("ResolveLocation %q: %w", tz, errInvalidTimezone)
		}
		return time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600), nil
	}

	if tz == "Local" {
		return nil, fmt.Errorf("ResolveLocation %q: %w", tz, errInvalidTimezone)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("ResolveLocation %q: %w", tz, errInvalidTimezone)
	}

	return loc, nil
}

const dateLayout = "2006-01-02"
