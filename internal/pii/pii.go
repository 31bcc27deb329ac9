// Package pii normalizes and hashes contact fields so raw identifiers never
// cross the boundary to ad-matching endpoints.
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashField one-way hashes a contact field for ad matching: trim, lower-case,
// SHA-256, lowercase hex. Empty or whitespace-only input yields "", never the
// digest of an empty string.
func HashField(v string) string {
	t := strings.ToLower(strings.TrimSpace(v))
	if t == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone strips everything but digits, then formats: exactly 10
// digits get a +1 country code, more than 10 keep their own with a leading +,
// anything shorter is discarded.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) > 10:
		return "+" + d
	default:
		return ""
	}
}

// MatchParams carries the hashed contact fields ad networks match on.
type MatchParams struct {
	Email     string `json:"em,omitempty"`
	Phone     string `json:"ph,omitempty"`
	FirstName string `json:"fn,omitempty"`
	LastName  string `json:"ln,omitempty"`
}

// Match hashes each non-empty contact field.
func Match(email, phone, firstName, lastName string) MatchParams {
	return MatchParams{
		Email:     HashField(email),
		Phone:     HashField(phone),
		FirstName: HashField(firstName),
		LastName:  HashField(lastName),
	}
}

// Empty reports whether no field hashed to a value.
func (m MatchParams) Empty() bool {
	return m == MatchParams{}
}
