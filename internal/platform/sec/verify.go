// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Verifier

// TokenVerifier validates tokens minted by a [TokenCodec] sharing the same config.
type TokenVerifier struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenVerifier validates cfg and returns a ready verifier.
func NewTokenVerifier(cfg TokenConfig, opts ...Option) (*TokenVerifier, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return nil, err
	}

	built := buildOptions(opts)

	// Temporal claims are checked below against our own clock, in a fixed order,
	// so the library only verifies structure and signature.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	return &TokenVerifier{
		secret: []byte(cfg.Secret),
		method: method,
		parser: parser,
		now:    built.now,
	}, nil
}

/*
Verify checks a token and returns its claims.

Description: Runs the validation pipeline and stops at the first failure:
 1. Signature, with the single configured algorithm ("none" and any other alg are rejected).
 2. Presence of exp, iat, nbf, type and jti.
 3. now < nbf or now >= exp.
 4. type must equal expected.
 5. now - iat must not exceed the per-type maximum age, and iat must not be
    more than [IssuedAtLeeway] ahead of now.

Parameters:
  - tokenString: string (compact JWT, possibly empty or garbage)
  - expected: TokenType

Returns:
  - Claims: The full claim set on success
  - error: Always [ErrInvalidToken] on failure
*/
func (verifier *TokenVerifier) Verify(tokenString string, expected TokenType) (Claims, error) {
	if tokenString == "" || !expected.Valid() {
		return nil, ErrInvalidToken
	}

	// 1. Signature
	claims := jwt.MapClaims{}
	if _, err := verifier.parser.ParseWithClaims(tokenString, claims, verifier.key); err != nil {
		return nil, ErrInvalidToken
	}

	// 2. Required claims
	for _, name := range requiredClaims {
		if _, ok := claims[name]; !ok {
			return nil, ErrInvalidToken
		}
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, ErrInvalidToken
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, ErrInvalidToken
	}
	notBefore, err := claims.GetNotBefore()
	if err != nil || notBefore == nil {
		return nil, ErrInvalidToken
	}
	if tokenID, ok := claims[ClaimTokenID].(string); !ok || tokenID == "" {
		return nil, ErrInvalidToken
	}

	// 3. Temporal window
	currentTime := verifier.now()
	if currentTime.Before(notBefore.Time) || !currentTime.Before(expiresAt.Time) {
		return nil, ErrInvalidToken
	}

	// 4. Type
	if tokenType, ok := claims[ClaimType].(string); !ok || TokenType(tokenType) != expected {
		return nil, ErrInvalidToken
	}

	// 5. Absolute age, with iat bounded on both sides
	age := currentTime.Sub(issuedAt.Time)
	if age < -IssuedAtLeeway || age > expected.maxAge() {
		return nil, ErrInvalidToken
	}

	return Claims(claims), nil
}

// key hands the HMAC secret to the parser, re-checking the header algorithm.
func (verifier *TokenVerifier) key(token *jwt.Token) (any, error) {
	if token.Method == nil || token.Method.Alg() != verifier.method.Alg() {
		return nil, ErrInvalidToken
	}
	return verifier.secret, nil
}
