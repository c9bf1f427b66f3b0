// Package signet authenticates users by wallet signature. A client signs a
// JSON challenge bound to this service and to a single-use nonce; the
// service verifies it, snapshots the account balance and issues a session
// token that later reads turn back into a session view without touching the
// chain.
package signet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/layer-3/signet/adapters/tokenizer"
	"github.com/layer-3/signet/config"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/ports"
	"github.com/layer-3/signet/service"
)

// Client represents the public interface for interacting with the sign-in service
type Client interface {
	// Nonce returns a fresh anti-forgery nonce for a challenge
	Nonce(ctx context.Context) (string, error)

	// Login redeems req.ExpectedNonce, authorizes req and issues a session token
	Login(ctx context.Context, req core.AuthenticationRequest) (token string, session core.SessionToken, err error)

	// Session verifies a session token and rebuilds its view
	Session(token string) (core.SessionView, error)
}

// Service wires the sign-in components together
type Service struct {
	auth      *service.AuthService
	issuer    *service.SessionIssuer
	tokenizer ports.Tokenizer
	nonces    *service.NonceService
}

var _ Client = (*Service)(nil)

// New creates a service. eventPub and logger may be nil.
func New(
	cfg *config.Config,
	balances ports.BalanceLookup,
	nonceStore ports.NonceStore,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		auth:      service.NewAuthService(cfg, balances, eventPub, logger),
		issuer:    service.NewSessionIssuer(cfg),
		tokenizer: tokenizer.NewJWTTokenizer(cfg),
		nonces:    service.NewNonceService(nonceStore, cfg.NonceTTL),
	}
}

// Nonce issues a nonce
func (s *Service) Nonce(ctx context.Context) (string, error) {
	return s.nonces.Issue(ctx)
}

// Login returns errors that still carry their kind; pass them through
// core.Opaque before showing them to the client.
func (s *Service) Login(ctx context.Context, req core.AuthenticationRequest) (string, core.SessionToken, error) {
	if err := s.nonces.Consume(ctx, req.ExpectedNonce); err != nil {
		return "", core.SessionToken{}, err
	}

	identity, err := s.auth.Authorize(ctx, req)
	if err != nil {
		return "", core.SessionToken{}, err
	}

	session := s.issuer.Issue(identity)
	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return "", core.SessionToken{}, fmt.Errorf("failed to create session: %w", err)
	}

	return token, session, nil
}

// Session parses token and reconstructs the view
func (s *Service) Session(token string) (core.SessionView, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return core.SessionView{}, err
	}
	return s.issuer.Reconstruct(session)
}
