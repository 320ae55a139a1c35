package core

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	DefaultBroadcast     = true
	DefaultBlocksBehind  = 3
	DefaultExpireSeconds = 30
)

// PermissionLevel is an actor@permission pair authorizing an action
type PermissionLevel struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// Action is a single contract call inside a transaction
type Action struct {
	Account       string            `json:"account"`
	Name          string            `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          json.RawMessage   `json:"data,omitempty"`
}

// Transaction is the unsigned transaction handed to a session. The TAPOS
// fields are filled in by the ledger client.
type Transaction struct {
	Expiration     string   `json:"expiration,omitempty"`
	RefBlockNum    uint16   `json:"ref_block_num,omitempty"`
	RefBlockPrefix uint32   `json:"ref_block_prefix,omitempty"`
	Actions        []Action `json:"actions"`
}

// TransactConfig holds caller overrides for a signing request. A nil field
// keeps the default for that key.
type TransactConfig struct {
	Broadcast     *bool   `json:"broadcast,omitempty"`
	BlocksBehind  *uint32 `json:"blocksBehind,omitempty"`
	ExpireSeconds *uint32 `json:"expireSeconds,omitempty"`
}

// TransactOptions is a fully resolved TransactConfig
type TransactOptions struct {
	Broadcast     bool   `json:"broadcast"`
	BlocksBehind  uint32 `json:"blocksBehind"`
	ExpireSeconds uint32 `json:"expireSeconds"`
}

// Resolve merges the config over the defaults, key by key.
func (c TransactConfig) Resolve() TransactOptions {
	opts := TransactOptions{
		Broadcast:     DefaultBroadcast,
		BlocksBehind:  DefaultBlocksBehind,
		ExpireSeconds: DefaultExpireSeconds,
	}
	if c.Broadcast != nil {
		opts.Broadcast = *c.Broadcast
	}
	if c.BlocksBehind != nil {
		opts.BlocksBehind = *c.BlocksBehind
	}
	if c.ExpireSeconds != nil {
		opts.ExpireSeconds = *c.ExpireSeconds
	}
	return opts
}

// Receipt is the ledger's execution receipt
type Receipt struct {
	Status        string `json:"status"`
	CPUUsageUs    uint32 `json:"cpu_usage_us,omitempty"`
	NetUsageWords uint32 `json:"net_usage_words,omitempty"`
}

// Processed is the ledger's trace of an executed transaction
type Processed struct {
	ID       string   `json:"id,omitempty"`
	BlockNum uint32   `json:"block_num,omitempty"`
	Receipt  *Receipt `json:"receipt,omitempty"`
}

// TransactResult is the raw result of LedgerClient.Transact
type TransactResult struct {
	TransactionID string     `json:"transaction_id"`
	Processed     *Processed `json:"processed,omitempty"`
	Signatures    []string   `json:"signatures,omitempty"`
	PackedTrx     string     `json:"packed_trx,omitempty"`
}

// Status returns the receipt status, or "" when the transaction was not executed
func (r *TransactResult) Status() string {
	if r == nil || r.Processed == nil || r.Processed.Receipt == nil {
		return ""
	}
	return r.Processed.Receipt.Status
}

// SignResult is what a session returns for a signed transaction
type SignResult struct {
	WasBroadcast  bool            `json:"wasBroadcast"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	Transaction   *TransactResult `json:"transaction"`
}

// SignatureRequest asks a signer for signatures over a packed transaction
type SignatureRequest struct {
	ChainID               string        `json:"chainId"`
	RequiredKeys          []string      `json:"requiredKeys"`
	SerializedTransaction hexutil.Bytes `json:"serializedTransaction"`
	Digest                hexutil.Bytes `json:"digest"`
}

// Account is the subset of a ledger account an authenticator needs
type Account struct {
	AccountName string `json:"account_name"`
	Created     string `json:"created,omitempty"`
}

// EnvelopeType names the request carried by an Envelope
type EnvelopeType string

const (
	EnvelopeAvailableKeys        EnvelopeType = "getAvailableKeys"
	EnvelopeTransactionSignature EnvelopeType = "transactionSignature"
)

// Envelope is a request sent to an out-of-process signer
type Envelope struct {
	ID                 string              `json:"id"`
	DeclaredDomain     string              `json:"declaredDomain"`
	ReturnURL          string              `json:"returnUrl"`
	SecurityExclusions *SecurityExclusions `json:"securityExclusions,omitempty"`
	Options            *Options            `json:"options,omitempty"`
	Type               EnvelopeType        `json:"type"`
	Payload            json.RawMessage     `json:"payload,omitempty"`
	IssuedAt           time.Time           `json:"-"`
	ExpiresAt          time.Time           `json:"-"`
}
