package service

import (
	"context"
	"crypto/ed25519"
	"math/big"
	"strings"
	"testing"
	"time"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/ss58"
	"github.com/layer-3/signet/internal/substrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodMessage = `{"uri":"https://example.test","nonce":"abc123"}`

func TestAuthorizeSucceeds(t *testing.T) {
	w := newWallet(t)
	lookup := &stubLookup{balance: big.NewInt(1_500_000_000_000)}
	events := &recordingPublisher{}
	svc := NewAuthService(testConfig(), lookup, events, nil)

	identity, err := svc.Authorize(context.Background(), w.request(goodMessage))
	require.NoError(t, err)

	expected, err := ss58.Reencode(w.address, ss58.Kusama)
	require.NoError(t, err)

	assert.Equal(t, w.address, identity.SubjectID)
	assert.Equal(t, "alice", identity.DisplayName)
	assert.Equal(t, expected, identity.NetworkAddress)
	assert.Equal(t, int64(1_500_000_000_000), identity.Balance.Int64())
	assert.Equal(t, int32(1), lookup.calls.Load())

	require.Len(t, events.events, 1)
	assert.Equal(t, publishedEvent{"login", w.address, expected}, events.events[0])
}

func TestAuthorizeSr25519Wallet(t *testing.T) {
	priv, pub, err := schnorrkel.GenerateKeypair()
	require.NoError(t, err)
	key := pub.Encode()
	address, err := ss58.Encode(key[:], ss58.Polkadot)
	require.NoError(t, err)

	// Browser extensions sign the <Bytes> wrapped payload
	sig, err := priv.Sign(schnorrkel.NewSigningContext(substrate.SigningContext, substrate.WrapBytes([]byte(goodMessage))))
	require.NoError(t, err)
	enc := sig.Encode()

	svc := NewAuthService(testConfig(), &stubLookup{balance: big.NewInt(0)}, nil, nil)
	identity, err := svc.Authorize(context.Background(), core.AuthenticationRequest{
		ClaimedAddress: address,
		RawMessage:     goodMessage,
		Signature:      strings.TrimPrefix(hexutil.Encode(enc[:]), "0x"),
		ExpectedNonce:  testNonce,
	})
	require.NoError(t, err)

	expected, err := ss58.Encode(key[:], ss58.Kusama)
	require.NoError(t, err)
	assert.Equal(t, expected, identity.NetworkAddress)
	assert.Equal(t, address, identity.SubjectID)
}

func TestAuthorizeWrongNonce(t *testing.T) {
	w := newWallet(t)
	lookup := &stubLookup{balance: big.NewInt(1)}
	events := &recordingPublisher{}
	svc := NewAuthService(testConfig(), lookup, events, nil)

	_, err := svc.Authorize(context.Background(), w.request(`{"uri":"https://example.test","nonce":"wrong"}`))
	assert.ErrorIs(t, err, core.ErrChallengeRejected)
	assert.ErrorIs(t, core.Opaque(err), core.ErrAuthenticationFailed)
	assert.Zero(t, lookup.calls.Load())

	require.Len(t, events.events, 1)
	assert.Equal(t, publishedEvent{"rejected", w.address, "challenge_rejected"}, events.events[0])
}

func TestAuthorizeWrongURI(t *testing.T) {
	w := newWallet(t)
	svc := NewAuthService(testConfig(), &stubLookup{balance: big.NewInt(1)}, nil, nil)

	_, err := svc.Authorize(context.Background(), w.request(`{"uri":"https://other.test","nonce":"abc123"}`))
	assert.ErrorIs(t, err, core.ErrChallengeRejected)
}

func TestAuthorizeBalanceTimeout(t *testing.T) {
	w := newWallet(t)
	svc := NewAuthService(testConfig(), hangingLookup{}, nil, nil)

	start := time.Now()
	identity, err := svc.Authorize(context.Background(), w.request(goodMessage))

	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	assert.Equal(t, core.Identity{}, identity)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAuthorizeBalanceFailure(t *testing.T) {
	w := newWallet(t)
	events := &recordingPublisher{err: errBoom}
	svc := NewAuthService(testConfig(), &stubLookup{err: errBoom}, events, nil)

	identity, err := svc.Authorize(context.Background(), w.request(goodMessage))
	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	assert.Nil(t, identity.Balance)
	assert.Equal(t, "upstream_unavailable", core.Kind(err))

	// A failing publisher never changes the outcome
	require.Len(t, events.events, 1)
	assert.Equal(t, "upstream_unavailable", events.events[0].detail)
}

func TestAuthorizeNilBalanceIsUnavailable(t *testing.T) {
	w := newWallet(t)
	svc := NewAuthService(testConfig(), &stubLookup{}, nil, nil)

	_, err := svc.Authorize(context.Background(), w.request(goodMessage))
	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
}

func TestAuthorizeInvalidSignature(t *testing.T) {
	w := newWallet(t)
	other := newWallet(t)
	lookup := &stubLookup{balance: big.NewInt(1)}
	svc := NewAuthService(testConfig(), lookup, nil, nil)

	forged := w.request(goodMessage)
	forged.Signature = hexutil.Encode(ed25519.Sign(other.priv, []byte(goodMessage)))

	tests := map[string]core.AuthenticationRequest{
		"other key": forged,
		"not hex": func() core.AuthenticationRequest {
			r := w.request(goodMessage)
			r.Signature = "zz"
			return r
		}(),
		"short": func() core.AuthenticationRequest {
			r := w.request(goodMessage)
			r.Signature = "0x0102"
			return r
		}(),
		"bad address": func() core.AuthenticationRequest {
			r := w.request(goodMessage)
			r.ClaimedAddress = "5notanaddress"
			return r
		}(),
		"message differs from signed": func() core.AuthenticationRequest {
			r := w.request(goodMessage)
			r.RawMessage = `{"uri":"https://example.test","nonce":"abc123","extra":1}`
			return r
		}(),
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authorize(context.Background(), req)
			assert.ErrorIs(t, err, core.ErrInvalidSignature)
		})
	}
	assert.Zero(t, lookup.calls.Load())
}

func TestAuthorizeMalformedMessage(t *testing.T) {
	w := newWallet(t)
	svc := NewAuthService(testConfig(), &stubLookup{balance: big.NewInt(1)}, nil, nil)

	for _, msg := range []string{"", "{", "[1,2]", `{"uri":"https://example.test"}`, "\x00\xff"} {
		assert.NotPanics(t, func() {
			_, err := svc.Authorize(context.Background(), w.request(msg))
			assert.ErrorIs(t, err, core.ErrMalformed)
		})
	}
}

func TestAuthorizeRechecksNonceEveryCall(t *testing.T) {
	w := newWallet(t)
	svc := NewAuthService(testConfig(), &stubLookup{balance: big.NewInt(1)}, nil, nil)

	req := w.request(goodMessage)
	_, err := svc.Authorize(context.Background(), req)
	require.NoError(t, err)

	req.ExpectedNonce = "rotated"
	_, err = svc.Authorize(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrChallengeRejected)
}
