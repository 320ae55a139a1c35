package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

// TimeLayout is the ledger's timestamp format
const TimeLayout = "2006-01-02T15:04:05.000"

// ChainInfo is the result of chain_getInfo
type ChainInfo struct {
	ChainID       string `json:"chain_id"`
	HeadBlockNum  uint32 `json:"head_block_num"`
	HeadBlockID   string `json:"head_block_id"`
	HeadBlockTime string `json:"head_block_time"`
}

// BlockHeader is the subset of chain_getBlock used for TAPOS
type BlockHeader struct {
	BlockNum  uint32 `json:"block_num"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// PushTransactionRequest is the parameter of chain_pushTransaction
type PushTransactionRequest struct {
	Signatures  []string `json:"signatures"`
	Compression string   `json:"compression"`
	PackedTrx   string   `json:"packed_trx"`
}

// Client is a JSON-RPC ledger client that signs through a SignerHandle
type Client struct {
	rpc    *rpc.Client
	signer ports.SignerHandle
}

// NewClient wraps an existing RPC connection
func NewClient(rpcClient *rpc.Client, signer ports.SignerHandle) *Client {
	return &Client{
		rpc:    rpcClient,
		signer: signer,
	}
}

// Dial connects to rpcURL and binds the client to signer
func Dial(ctx context.Context, rpcURL string, signer ports.SignerHandle) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger: %w", err)
	}
	return NewClient(rpcClient, signer), nil
}

// Factory is a ports.LedgerClientFactory backed by Dial
func Factory(ctx context.Context, rpcURL string, signer ports.SignerHandle) (ports.LedgerClient, error) {
	return Dial(ctx, rpcURL, signer)
}

func (c *Client) GetInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo
	if err := c.rpc.CallContext(ctx, &info, "chain_getInfo"); err != nil {
		return nil, fmt.Errorf("failed to get chain info: %w", err)
	}
	return &info, nil
}

func (c *Client) GetBlock(ctx context.Context, num uint32) (*BlockHeader, error) {
	var block BlockHeader
	if err := c.rpc.CallContext(ctx, &block, "chain_getBlock", num); err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", num, err)
	}
	return &block, nil
}

// GetAccount returns core.ErrAccountNotFound when the ledger answers null
func (c *Client) GetAccount(ctx context.Context, name string) (*core.Account, error) {
	var account *core.Account
	if err := c.rpc.CallContext(ctx, &account, "chain_getAccount", name); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountNotFound, name)
	}
	return account, nil
}

// Transact fills in TAPOS fields relative to the block opts.BlocksBehind
// the head, signs the packed transaction and, if opts.Broadcast, pushes it.
func (c *Client) Transact(ctx context.Context, tx core.Transaction, opts core.TransactOptions) (*core.TransactResult, error) {
	info, err := c.GetInfo(ctx)
	if err != nil {
		return nil, err
	}
	if opts.BlocksBehind > info.HeadBlockNum {
		return nil, fmt.Errorf("cannot reference %d blocks behind head %d", opts.BlocksBehind, info.HeadBlockNum)
	}

	ref, err := c.GetBlock(ctx, info.HeadBlockNum-opts.BlocksBehind)
	if err != nil {
		return nil, err
	}
	if err := applyTAPOS(&tx, ref, opts.ExpireSeconds); err != nil {
		return nil, err
	}

	packed, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transaction: %w", err)
	}
	digest := crypto.Keccak256(common.FromHex(info.ChainID), packed)

	keys, err := c.signer.AvailableKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get available keys: %w", err)
	}

	signatures, err := c.signer.Sign(ctx, core.SignatureRequest{
		ChainID:               info.ChainID,
		RequiredKeys:          keys,
		SerializedTransaction: packed,
		Digest:                digest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	packedHex := common.Bytes2Hex(packed)
	if !opts.Broadcast {
		return &core.TransactResult{
			TransactionID: common.Bytes2Hex(crypto.Keccak256(packed)),
			Signatures:    signatures,
			PackedTrx:     packedHex,
		}, nil
	}

	var result core.TransactResult
	err = c.rpc.CallContext(ctx, &result, "chain_pushTransaction", PushTransactionRequest{
		Signatures:  signatures,
		Compression: "none",
		PackedTrx:   packedHex,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to push transaction: %w", err)
	}

	return &result, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func applyTAPOS(tx *core.Transaction, ref *BlockHeader, expireSeconds uint32) error {
	blockTime, err := time.Parse(TimeLayout, ref.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid block timestamp %q: %w", ref.Timestamp, err)
	}

	id := common.FromHex(ref.ID)
	if len(id) < 12 {
		return fmt.Errorf("invalid block id %q", ref.ID)
	}

	tx.Expiration = blockTime.Add(time.Duration(expireSeconds) * time.Second).UTC().Format(TimeLayout)
	tx.RefBlockNum = uint16(ref.BlockNum & 0xffff)
	tx.RefBlockPrefix = binary.LittleEndian.Uint32(id[8:12])
	return nil
}
