package service

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/signet/config"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/ss58"
	"github.com/shopspring/decimal"
)

// SessionIssuer maps identities to session claims and claims back to the
// view pages render. It never talks to the chain.
type SessionIssuer struct {
	lifetime  time.Duration
	networkID uint16
	decimals  int32
	symbol    string
	now       func() time.Time
}

// NewSessionIssuer creates a new session issuer
func NewSessionIssuer(cfg *config.Config) *SessionIssuer {
	return &SessionIssuer{
		lifetime:  cfg.SessionLifetime,
		networkID: cfg.TargetNetworkID,
		decimals:  cfg.TokenDecimals,
		symbol:    cfg.TokenSymbol,
		now:       time.Now,
	}
}

// Issue builds the claims of a new session for identity
func (s *SessionIssuer) Issue(identity core.Identity) core.SessionToken {
	now := s.now().UTC().Truncate(time.Second)
	return core.SessionToken{
		ID:          uuid.New().String(),
		SubjectID:   identity.SubjectID,
		DisplayName: identity.DisplayName,
		Balance:     copyBalance(identity.Balance),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.lifetime),
	}
}

// Reconstruct derives the session view from previously issued claims. The
// network address is recomputed from the subject and the balance is the
// snapshot taken at login.
func (s *SessionIssuer) Reconstruct(token core.SessionToken) (core.SessionView, error) {
	networkAddress, err := ss58.Reencode(token.SubjectID, s.networkID)
	if err != nil {
		return core.SessionView{}, err
	}

	balance := copyBalance(token.Balance)
	return core.SessionView{
		DisplayAddress:   token.SubjectID,
		NetworkAddress:   networkAddress,
		DisplayName:      token.DisplayName,
		Balance:          balance,
		FormattedBalance: FormatBalance(balance, s.decimals, s.symbol),
		ExpiresAt:        token.ExpiresAt,
	}, nil
}

// FormatBalance renders a planck amount in whole tokens, e.g. "1.5 KSM".
func FormatBalance(balance *big.Int, decimals int32, symbol string) string {
	amount := decimal.NewFromBigInt(copyBalance(balance), -decimals)
	if symbol == "" {
		return amount.String()
	}
	return amount.String() + " " + symbol
}

func copyBalance(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}
