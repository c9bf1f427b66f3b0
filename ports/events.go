package ports

import (
	"context"
	"math/big"
)

// EventPublisher publishes authentication events for other instances and observers
type EventPublisher interface {
	PublishLogin(ctx context.Context, address, networkAddress string, balance *big.Int) error
	PublishRejection(ctx context.Context, address, reason string) error
}
