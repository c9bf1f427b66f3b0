package events

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/signet/ports"
)

const (
	TopicLogin    = "signet.login"
	TopicRejected = "signet.rejected"
)

// LoginEvent is published after a successful authorization
type LoginEvent struct {
	Address        string `json:"address"`
	NetworkAddress string `json:"network_address"`
	Balance        string `json:"balance"`
}

// RejectionEvent is published when an authorization fails
type RejectionEvent struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address, networkAddress string, balance *big.Int) error {
	event := LoginEvent{
		Address:        address,
		NetworkAddress: networkAddress,
		Balance:        "0",
	}
	if balance != nil {
		event.Balance = balance.String()
	}
	return p.publish(ctx, TopicLogin, event)
}

// PublishRejection publishes a rejection event
func (p *WatermillPublisher) PublishRejection(ctx context.Context, address, reason string) error {
	return p.publish(ctx, TopicRejected, RejectionEvent{Address: address, Reason: reason})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
