package balance

import (
	"context"
	"math/big"
)

// Static reports the same balance for every account. It stands in for a
// chain connection in development.
type Static struct {
	Balance *big.Int
}

// FetchBalance returns the configured balance
func (s Static) FetchBalance(ctx context.Context, _ string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Balance == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(s.Balance), nil
}
