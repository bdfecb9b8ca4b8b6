package db

import (
	"context"
	"errors"
	"strings"

	"github.com/AlekSi/pointer"
)

var ErrProfileNotFound = errors.New("profile not found")

type Language string

const (
	LanguageEN Language = "EN"
	LanguageRU Language = "RU"
)

// ParseLanguage maps stored values to a Language. Unknown or empty values,
// including the legacy "ENG", read as English.
func ParseLanguage(raw string) Language {
	if strings.EqualFold(strings.TrimSpace(raw), string(LanguageRU)) {
		return LanguageRU
	}

	return LanguageEN
}

// Document field names of the users collection.
const (
	FieldLanguage   = "language"
	FieldName       = "name"
	FieldBirthday   = "birthday"
	FieldBirthplace = "birthplace"
	FieldBirthTime  = "birthTime"
	FieldTimezone   = "timezone"
)

// Fields is a partial profile document. Save merges it into the stored one.
type Fields map[string]string

// Profile is the per-chat record. A nil field is unset.
type Profile struct {
	ChatID     int64
	Language   Language
	Name       *string
	Birthday   *string
	Birthplace *string
	BirthTime  *string
	Timezone   *string
}

func ProfileFromFields(chatID int64, fields Fields) *Profile {
	p := &Profile{
		ChatID:   chatID,
		Language: ParseLanguage(fields[FieldLanguage]),
	}

	p.Name = optional(fields, FieldName)
	p.Birthday = optional(fields, FieldBirthday)
	p.Birthplace = optional(fields, FieldBirthplace)
	p.BirthTime = optional(fields, FieldBirthTime)
	p.Timezone = optional(fields, FieldTimezone)

	return p
}

func optional(fields Fields, key string) *string {
	v, ok := fields[key]
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}

	return pointer.To(v)
}

// HasBirthData reports whether birthday and birthplace are both set.
func (p *Profile) HasBirthData() bool {
	return p != nil && p.Birthday != nil && p.Birthplace != nil
}

// HasDetails reports whether name, birthday and birthplace are all set.
func (p *Profile) HasDetails() bool {
	return p.HasBirthData() && p.Name != nil
}

// LanguageOrDefault is safe on a nil profile.
func (p *Profile) LanguageOrDefault() Language {
	if p == nil {
		return LanguageEN
	}

	return p.Language
}

// TimezoneOrDefault returns the stored timezone or "UTC".
func (p *Profile) TimezoneOrDefault() string {
	if p == nil || p.Timezone == nil {
		return "UTC"
	}

	return pointer.Get(p.Timezone)
}

// ProfileStore persists profiles keyed by chat identifier.
type ProfileStore interface {
	// Save merges fields into the document for chatID, creating it if absent.
	Save(ctx context.Context, chatID int64, fields Fields) error
	// Load returns ErrProfileNotFound when no document exists.
	Load(ctx context.Context, chatID int64) (*Profile, error)
}
