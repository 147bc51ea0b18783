package crypto

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// PlaceholderClaims are the claims of a proof placeholder token.
//
//	iss  device id
//	sub  proof id
//	jti  nonce
//	iat  creation time
//	exp  expiry
type PlaceholderClaims struct {
	// Digest is the hex input digest the placeholder vouches for.
	Digest string `json:"dig"`

	// ProofType is the kind of proof being stood in for.
	ProofType string `json:"pty"`

	jwt.RegisteredClaims
}

// SignPlaceholder produces a compact EdDSA token over claims.
func (k *DeviceKey) SignPlaceholder(claims PlaceholderClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, &claims)
	signed, err := token.SignedString(k.private)
	if err != nil {
		return "", fmt.Errorf("sign placeholder: %w", err)
	}
	return signed, nil
}

// VerifyPlaceholder checks the token signature against the device public
// key and returns its claims. Expiry is not checked; callers compare exp
// with their own clock and report expired proofs separately.
func VerifyPlaceholder(token string, pub ed25519.PublicKey) (*PlaceholderClaims, error) {
	claims := &PlaceholderClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return pub, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlaceholder, err)
	}
	return claims, nil
}
