package ports

import "context"

// EventPublisher notifies other processes about session changes
type EventPublisher interface {
	PublishLogin(ctx context.Context, chainID, accountName string) error
	PublishLogout(ctx context.Context, chainID, accountName string) error
	PublishTransactionSigned(ctx context.Context, chainID, accountName, transactionID string, broadcast bool) error
}
