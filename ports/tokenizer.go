package ports

import "github.com/layer-3/ualauth/core"

// Tokenizer converts signer request envelopes to and from signed tokens
type Tokenizer interface {
	EnvelopeToToken(envelope *core.Envelope) (string, error)
	TokenToEnvelope(token string) (*core.Envelope, error)
}
