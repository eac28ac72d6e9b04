// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "errors"

// # Access Gate

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

var (
	// ErrForbidden means the identity is authenticated but its role is too low.
	ErrForbidden = errors.New("sec: insufficient permissions")

	// ErrInactive means the identity is known but disabled. It is a 403-class
	// condition: the credential itself was valid.
	ErrInactive = errors.New("sec: inactive identity")
)

// ActiveSubject is anything that can report whether it is enabled.
type ActiveSubject interface {
	Active() bool
}

// Authorize allows actor iff its role is at least required under
// viewer < editor < admin. It looks at roles only, never at organizations.
func Authorize(actor, required Role) Decision {
	return Decision(actor.AtLeast(required))
}

// RequireActive passes subject through, or returns [ErrInactive].
func RequireActive[T ActiveSubject](subject T) (T, error) {
	if !subject.Active() {
		var zero T
		return zero, ErrInactive
	}
	return subject, nil
}
