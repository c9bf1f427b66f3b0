package ports

import (
	"context"
	"math/big"
)

// BalanceLookup fetches the free balance of an account from chain state.
// Implementations must be safe for concurrent use and honour ctx deadlines.
type BalanceLookup interface {
	FetchBalance(ctx context.Context, address string) (*big.Int, error)
}
