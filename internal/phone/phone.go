// Package phone canonicalizes free-text phone numbers into E.164 so that
// storage and display agree no matter how the purchaser typed the number.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"partyflow/internal/status"
)

// Normalize parses raw against the default region (ISO 3166-1 alpha-2,
// e.g. "IL") and returns the E.164 form. Numbers that do not parse, or that
// parse but are not valid for their region, are rejected with
// status.ErrInvalidPhone.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", status.ErrInvalidPhone
	}

	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", status.ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", status.ErrInvalidPhone
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
