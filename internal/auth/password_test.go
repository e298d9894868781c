package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rsecret!")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rsecret!", hash)

	assert.True(t, VerifyPassword(hash, "Sup3rsecret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		problems int
	}{
		{"strong mixed case with digit", "Password123", 0},
		{"strong with symbol", "passw0rd!x", 0},
		{"too short", "Pw1", 1},
		{"too short and one class", "abc", 2},
		{"long but single class", "abcdefghij", 1},
		{"long two classes", "abcdefgh12", 1},
		{"empty", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidatePasswordStrength(tt.password)
			assert.Len(t, problems, tt.problems)
		})
	}
}
