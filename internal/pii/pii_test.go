package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"us ten digits", "555-123-4567", "+15551234567"},
		{"uk thirteen digits", "+44 20 1234 5678", "+442012345678"},
		{"too short", "123", ""},
		{"empty", "", ""},
		{"ten digits with noise", "(555) 123.4567", "+15551234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestHashField_TrimAndLower(t *testing.T) {
	a := HashField("Test@Example.com")
	b := HashField("test@example.com ")

	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, a)
}

func TestHashField_EmptyIsAbsent(t *testing.T) {
	// Absent input must not hash to the digest of "".
	assert.Empty(t, HashField(""))
	assert.Empty(t, HashField("   "))
}

func TestMatch(t *testing.T) {
	m := Match("Test@Example.com", "+15551234567", "Jane", "")

	assert.Equal(t, HashField("test@example.com"), m.Email)
	assert.Equal(t, HashField("+15551234567"), m.Phone)
	assert.Equal(t, HashField("jane"), m.FirstName)
	assert.Empty(t, m.LastName)
	assert.False(t, m.Empty())

	assert.True(t, Match("", "", "", "").Empty())
}
