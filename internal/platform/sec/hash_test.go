// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/kbase/internal/platform/sec"
)

// Minimum cost keeps the suite fast; the algorithm is identical.
func newHasher() *sec.PasswordHasher {
	return sec.NewPasswordHasher(bcrypt.MinCost)
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := newHasher()

	passwords := []string{
		"Valid123!",
		"",
		"pässwörd-ünïcode-密码",
		strings.Repeat("a", 72),
		strings.Repeat("b", 200),
	}

	for _, password := range passwords {
		hashed, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.NotEqual(t, password, hashed)
		assert.True(t, hasher.Verify(password, hashed))
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	hasher := newHasher()

	first, err := hasher.Hash("Valid123!")
	require.NoError(t, err)
	second, err := hasher.Hash("Valid123!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("Valid123!", first))
	assert.True(t, hasher.Verify("Valid123!", second))
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	hasher := newHasher()

	hashed, err := hasher.Hash("Valid123!")
	require.NoError(t, err)

	assert.False(t, hasher.Verify("valid123!", hashed))
	assert.False(t, hasher.Verify("", hashed))
	assert.False(t, hasher.Verify("Valid123!!", hashed))
}

func TestPasswordHasher_LongInputsAreFullyCompared(t *testing.T) {
	hasher := newHasher()

	prefix := strings.Repeat("x", 80)
	hashed, err := hasher.Hash(prefix + "tail-one")
	require.NoError(t, err)

	assert.True(t, hasher.Verify(prefix+"tail-one", hashed))
	assert.False(t, hasher.Verify(prefix+"tail-two", hashed))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	hasher := newHasher()

	for _, hash := range []string{"", "not-a-hash", "$2a$04$short", "$argon2id$v=19$m=65536"} {
		assert.NotPanics(t, func() {
			assert.False(t, hasher.Verify("Valid123!", hash))
		})
	}
}

func TestPasswordHasher_CostClamp(t *testing.T) {
	tests := []struct {
		name     string
		cost     int
		expected int
	}{
		{"zero_selects_default", 0, bcrypt.DefaultCost},
		{"below_minimum", 1, bcrypt.MinCost},
		{"within_range", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := sec.NewPasswordHasher(tt.cost).Hash("Valid123!")
			require.NoError(t, err)

			cost, err := bcrypt.Cost([]byte(hashed))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cost)
		})
	}
}

func TestPasswordHasher_Equalize(t *testing.T) {
	hasher := newHasher()
	assert.NotPanics(t, func() {
		hasher.Equalize("anything")
		hasher.Equalize("")
	})
}
