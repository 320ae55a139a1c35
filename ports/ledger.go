package ports

import (
	"context"

	"github.com/layer-3/ualauth/core"
)

// LedgerClient executes transactions against one ledger RPC endpoint
type LedgerClient interface {
	Transact(ctx context.Context, tx core.Transaction, opts core.TransactOptions) (*core.TransactResult, error)
	GetAccount(ctx context.Context, name string) (*core.Account, error)
	Close()
}

// LedgerClientFactory connects a ledger client bound to a signer
type LedgerClientFactory func(ctx context.Context, rpcURL string, signer SignerHandle) (LedgerClient, error)
