// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// # Password Policy

const (
	// MinPasswordLength is the minimum number of characters in a password.
	MinPasswordLength = 8

	// SpecialCharacters is the set from which at least one character is required.
	SpecialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// Reasons reported by [CheckStrength], one per rule.
const (
	ReasonTooShort    = "Password must be at least 8 characters long"
	ReasonNoUppercase = "Password must contain at least one uppercase letter"
	ReasonNoLowercase = "Password must contain at least one lowercase letter"
	ReasonNoDigit     = "Password must contain at least one digit"
	ReasonNoSpecial   = "Password must contain at least one special character"
)

// CheckStrength applies the password policy and returns the first violated rule.
//
// Rules are evaluated in order: length, uppercase, lowercase, digit, special
// character. A valid password yields (true, "").
func CheckStrength(password string) (bool, string) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false, ReasonTooShort
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return false, ReasonNoUppercase
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return false, ReasonNoLowercase
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return false, ReasonNoDigit
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		return false, ReasonNoSpecial
	}
	return true, ""
}
