package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/ualauth/ports"
)

const (
	TopicLogin  = "ualauth.login"
	TopicLogout = "ualauth.logout"
	TopicSigned = "ualauth.signed"
)

// SessionEvent is published when an account logs in or out on a chain
type SessionEvent struct {
	ChainID     string    `json:"chain_id"`
	AccountName string    `json:"account_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SignedEvent is published after a transaction was signed
type SignedEvent struct {
	ChainID       string    `json:"chain_id"`
	AccountName   string    `json:"account_name"`
	TransactionID string    `json:"transaction_id"`
	Broadcast     bool      `json:"broadcast"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, chainID, accountName string) error {
	return p.publish(ctx, TopicLogin, SessionEvent{
		ChainID:     chainID,
		AccountName: accountName,
		OccurredAt:  p.now(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, chainID, accountName string) error {
	return p.publish(ctx, TopicLogout, SessionEvent{
		ChainID:     chainID,
		AccountName: accountName,
		OccurredAt:  p.now(),
	})
}

// PublishTransactionSigned publishes a signed-transaction event
func (p *WatermillPublisher) PublishTransactionSigned(ctx context.Context, chainID, accountName, transactionID string, broadcast bool) error {
	return p.publish(ctx, TopicSigned, SignedEvent{
		ChainID:       chainID,
		AccountName:   accountName,
		TransactionID: transactionID,
		Broadcast:     broadcast,
		OccurredAt:    p.now(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
