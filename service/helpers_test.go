package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/signet/config"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/ss58"
	"github.com/stretchr/testify/require"
)

const (
	testURI   = "https://example.test"
	testNonce = "abc123"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceURI:      testURI,
		TargetNetworkID: ss58.Kusama,
		SessionLifetime: time.Hour,
		BalanceTimeout:  50 * time.Millisecond,
		TokenDecimals:   12,
		TokenSymbol:     "KSM",
	}
}

// stubLookup returns a fixed balance and counts calls
type stubLookup struct {
	balance *big.Int
	err     error
	calls   atomic.Int32
}

func (s *stubLookup) FetchBalance(ctx context.Context, address string) (*big.Int, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.balance, nil
}

// hangingLookup blocks until the caller gives up
type hangingLookup struct{}

func (hangingLookup) FetchBalance(ctx context.Context, address string) (*big.Int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type publishedEvent struct {
	topic   string
	address string
	detail  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishLogin(ctx context.Context, address, networkAddress string, balance *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{"login", address, networkAddress})
	return p.err
}

func (p *recordingPublisher) PublishRejection(ctx context.Context, address, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{"rejected", address, reason})
	return p.err
}

type wallet struct {
	priv    ed25519.PrivateKey
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	address, err := ss58.Encode(pub, ss58.Generic)
	require.NoError(t, err)
	return wallet{priv: priv, address: address}
}

func (w wallet) request(message string) core.AuthenticationRequest {
	return core.AuthenticationRequest{
		ClaimedAddress: w.address,
		RawMessage:     message,
		Signature:      hexutil.Encode(ed25519.Sign(w.priv, []byte(message))),
		ExpectedNonce:  testNonce,
		DisplayName:    "alice",
	}
}

var errBoom = errors.New("boom")
