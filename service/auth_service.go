package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/signet/config"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/ss58"
	"github.com/layer-3/signet/internal/substrate"
	"github.com/layer-3/signet/ports"
)

// AuthService turns signed challenges into authenticated identities
type AuthService struct {
	balances ports.BalanceLookup
	eventPub ports.EventPublisher
	logger   *slog.Logger

	serviceURI     string
	networkID      uint16
	balanceTimeout time.Duration
}

// NewAuthService creates a new authentication service. eventPub and logger may be nil.
func NewAuthService(
	cfg *config.Config,
	balances ports.BalanceLookup,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if eventPub == nil {
		eventPub = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		balances:       balances,
		eventPub:       eventPub,
		logger:         logger,
		serviceURI:     cfg.ServiceURI,
		networkID:      cfg.TargetNetworkID,
		balanceTimeout: cfg.BalanceTimeout,
	}
}

// Authorize checks the challenge binding and signature of req, then fetches
// the account balance. The returned error wraps exactly one of the core
// authorization errors; callers crossing a trust boundary should pass it
// through core.Opaque.
func (s *AuthService) Authorize(ctx context.Context, req core.AuthenticationRequest) (core.Identity, error) {
	identity, err := s.authorize(ctx, req)
	if err != nil {
		kind := core.Kind(err)
		s.logger.InfoContext(ctx, "authorization rejected", "address", req.ClaimedAddress, "reason", kind)
		if perr := s.eventPub.PublishRejection(ctx, req.ClaimedAddress, kind); perr != nil {
			s.logger.WarnContext(ctx, "failed to publish rejection event", "error", perr)
		}
		return core.Identity{}, err
	}

	s.logger.InfoContext(ctx, "authorization granted", "address", identity.SubjectID, "network_address", identity.NetworkAddress)
	if perr := s.eventPub.PublishLogin(ctx, identity.SubjectID, identity.NetworkAddress, identity.Balance); perr != nil {
		s.logger.WarnContext(ctx, "failed to publish login event", "error", perr)
	}
	return identity, nil
}

func (s *AuthService) authorize(ctx context.Context, req core.AuthenticationRequest) (core.Identity, error) {
	challenge, err := ParseChallenge(req.RawMessage)
	if err != nil {
		return core.Identity{}, err
	}

	if err := ValidateChallenge(challenge, s.serviceURI, req.ExpectedNonce); err != nil {
		return core.Identity{}, err
	}

	if !s.verifySignature(req) {
		return core.Identity{}, core.ErrInvalidSignature
	}

	accountID, err := ss58.DecodeAccountID(req.ClaimedAddress)
	if err != nil {
		return core.Identity{}, err
	}
	networkAddress, err := ss58.Encode(accountID, s.networkID)
	if err != nil {
		return core.Identity{}, err
	}

	balance, err := s.fetchBalance(ctx, req.ClaimedAddress)
	if err != nil {
		return core.Identity{}, err
	}

	return core.Identity{
		SubjectID:      req.ClaimedAddress,
		DisplayName:    req.DisplayName,
		NetworkAddress: networkAddress,
		Balance:        balance,
	}, nil
}

func (s *AuthService) verifySignature(req core.AuthenticationRequest) bool {
	sig := req.Signature
	if !strings.HasPrefix(sig, "0x") {
		sig = "0x" + sig
	}
	raw, err := hexutil.Decode(sig)
	if err != nil {
		return false
	}
	return substrate.Verify([]byte(req.RawMessage), raw, req.ClaimedAddress)
}

func (s *AuthService) fetchBalance(ctx context.Context, address string) (*big.Int, error) {
	if s.balanceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.balanceTimeout)
		defer cancel()
	}

	balance, err := s.balances.FetchBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %v: %w", err, core.ErrUpstreamUnavailable)
	}
	if balance == nil || balance.Sign() < 0 {
		return nil, fmt.Errorf("invalid balance %v: %w", balance, core.ErrUpstreamUnavailable)
	}
	return new(big.Int).Set(balance), nil
}

type nopPublisher struct{}

func (nopPublisher) PublishLogin(context.Context, string, string, *big.Int) error { return nil }

func (nopPublisher) PublishRejection(context.Context, string, string) error { return nil }
