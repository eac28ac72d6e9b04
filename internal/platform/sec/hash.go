// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput is the number of password bytes bcrypt actually reads.
const bcryptMaxInput = 72

// PasswordHasher hashes and verifies credentials with bcrypt.
type PasswordHasher struct {
	cost  int
	decoy func() string
}

// NewPasswordHasher returns a hasher using cost, clamped to bcrypt's valid range.
// A zero cost selects [bcrypt.DefaultCost].
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	hasher := &PasswordHasher{cost: cost}
	hasher.decoy = sync.OnceValue(func() string {
		// The error only surfaces on entropy failure; an empty decoy just makes
		// the equalizing compare return early.
		hashed, _ := hasher.Hash("decoy-password-never-matches")
		return hashed
	})
	return hasher
}

// Hash returns a freshly salted bcrypt hash of plainTextPassword.
//
// Every input is accepted, including the empty string. Passwords longer than
// 72 bytes are pre-hashed so that no byte of the input is ignored.
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword(prepare(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with its hashed version in constant time.
// A malformed hash simply does not match.
func (hasher *PasswordHasher) Verify(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), prepare(plainTextPassword))
	return err == nil
}

// Equalize burns the same CPU as a real [PasswordHasher.Verify] so that lookups
// of unknown accounts take as long as a wrong password.
func (hasher *PasswordHasher) Equalize(plainTextPassword string) {
	_ = hasher.Verify(plainTextPassword, hasher.decoy())
}

func prepare(plainTextPassword string) []byte {
	if len(plainTextPassword) <= bcryptMaxInput {
		return []byte(plainTextPassword)
	}
	sum := sha256.Sum256([]byte(plainTextPassword))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
