package tokenizer

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/ualauth/core"
)

// EnvelopeClaims combines standard claims with the signer request
type EnvelopeClaims struct {
	jwt.RegisteredClaims
	ReturnURL          string                   `json:"return_url"`
	SecurityExclusions *core.SecurityExclusions `json:"security_exclusions,omitempty"`
	Options            *core.Options            `json:"options,omitempty"`
	Type               core.EnvelopeType        `json:"type"`
	Payload            json.RawMessage          `json:"payload,omitempty"`
}
