// Package form captures the checkout contact form into the store so the
// later checkout events can pick the record up.
package form

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/pii"
	"github.com/topekalabs/beacon/internal/store"
)

const storageKey = "customerFormData"

// Fields are the raw values read off the contact form at submit time.
type Fields struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Contact is the persisted customer record. Phone is in +<countrycode><digits>
// form, or empty when normalization discarded it.
type Contact struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Capture normalizes and persists the contact record, replacing any prior
// one. Capture is fire-and-forget: a storage failure is logged, never
// surfaced, and the submission that triggered it proceeds regardless.
func Capture(ctx context.Context, s store.Store, f Fields, log *zap.Logger) Contact {
	c := Contact{
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Phone:     pii.NormalizePhone(f.Phone),
	}

	b, err := json.Marshal(c)
	if err != nil {
		log.Warn("contact record marshal failed", zap.Error(err))
		return c
	}
	if err := s.Set(ctx, storageKey, string(b)); err != nil {
		log.Warn("contact record write failed", zap.Error(err))
	}
	return c
}

// Load reads the stored contact record. Missing or malformed state reads as
// an empty record.
func Load(ctx context.Context, s store.Store, log *zap.Logger) Contact {
	v, ok, err := s.Get(ctx, storageKey)
	if err != nil {
		log.Warn("contact record read failed", zap.Error(err))
		return Contact{}
	}
	if !ok {
		return Contact{}
	}

	var c Contact
	if err := json.Unmarshal([]byte(v), &c); err != nil {
		log.Warn("contact record corrupt, treating as empty", zap.Error(err))
		return Contact{}
	}
	return c
}

// Empty reports whether the record carries no contact data.
func (c Contact) Empty() bool {
	return c == Contact{}
}
