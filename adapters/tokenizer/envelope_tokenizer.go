package tokenizer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

const AudienceSignatureRequest = "ual:signature-request"

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer. signKey must be a P-256 key.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// EnvelopeToToken converts an Envelope to a signed JWT
func (j *JWTTokenizer) EnvelopeToToken(envelope *core.Envelope) (string, error) {
	claims := EnvelopeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   envelope.DeclaredDomain,
			ID:        envelope.ID,
			ExpiresAt: jwt.NewNumericDate(envelope.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(envelope.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceSignatureRequest},
		},
		ReturnURL:          envelope.ReturnURL,
		SecurityExclusions: envelope.SecurityExclusions,
		Options:            envelope.Options,
		Type:               envelope.Type,
		Payload:            envelope.Payload,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign envelope: %w", err)
	}

	return signedToken, nil
}

// TokenToEnvelope verifies a JWT and converts it back to an Envelope
func (j *JWTTokenizer) TokenToEnvelope(tokenStr string) (*core.Envelope, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &EnvelopeClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSignatureRequest))

	if err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidEnvelope
	}

	claims, ok := token.Claims.(*EnvelopeClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrInvalidEnvelope)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing timestamps", core.ErrInvalidEnvelope)
	}

	return &core.Envelope{
		ID:                 claims.ID,
		DeclaredDomain:     claims.Subject,
		ReturnURL:          claims.ReturnURL,
		SecurityExclusions: claims.SecurityExclusions,
		Options:            claims.Options,
		Type:               claims.Type,
		Payload:            claims.Payload,
		IssuedAt:           claims.IssuedAt.Time,
		ExpiresAt:          claims.ExpiresAt.Time,
	}, nil
}
