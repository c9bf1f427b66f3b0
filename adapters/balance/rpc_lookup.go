// Package balance provides BalanceLookup implementations backed by a
// Substrate node or by a fixed value.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/layer-3/signet/internal/ss58"
	"github.com/layer-3/signet/ports"
	"golang.org/x/crypto/blake2b"
)

// systemAccountPrefix is twox128("System") ++ twox128("Account")
var systemAccountPrefix = hexutil.MustDecode("0x26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9")

const (
	// AccountInfo is nonce, consumers, providers, sufficients (u32 each)
	// followed by AccountData whose first member is the free balance (u128)
	freeBalanceOffset = 16
	u128Size          = 16
)

// RPCLookup reads free balances from System.Account storage over JSON-RPC.
// The connection is established on first use and re-established after a
// failed call.
type RPCLookup struct {
	dial  func(ctx context.Context) (*rpc.Client, error)
	owned bool // client was dialed here and may be replaced

	mu     sync.Mutex
	client *rpc.Client
}

// NewRPCLookup creates a lookup against a ws://, wss://, http:// or https:// endpoint
func NewRPCLookup(endpoint string) *RPCLookup {
	return &RPCLookup{
		dial: func(ctx context.Context) (*rpc.Client, error) {
			return rpc.DialContext(ctx, endpoint)
		},
		owned: true,
	}
}

// NewRPCLookupWithClient creates a lookup that reuses an existing client
func NewRPCLookupWithClient(client *rpc.Client) *RPCLookup {
	return &RPCLookup{
		client: client,
		dial: func(context.Context) (*rpc.Client, error) {
			return client, nil
		},
	}
}

var _ ports.BalanceLookup = (*RPCLookup)(nil)

// FetchBalance returns the free balance of address. Accounts without storage
// have a zero balance.
func (l *RPCLookup) FetchBalance(ctx context.Context, address string) (*big.Int, error) {
	key, err := AccountStorageKey(address)
	if err != nil {
		return nil, err
	}

	client, err := l.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain: %w", err)
	}

	var result *string
	if err := client.CallContext(ctx, &result, "state_getStorage", hexutil.Encode(key)); err != nil {
		if ctx.Err() == nil {
			l.drop(client)
		}
		return nil, fmt.Errorf("state_getStorage: %w", err)
	}

	if result == nil {
		return new(big.Int), nil
	}
	data, err := hexutil.Decode(*result)
	if err != nil {
		return nil, fmt.Errorf("invalid storage value: %w", err)
	}
	return DecodeFreeBalance(data)
}

// Close releases a connection dialed by the lookup
func (l *RPCLookup) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owned && l.client != nil {
		l.client.Close()
		l.client = nil
	}
}

func (l *RPCLookup) connect(ctx context.Context) (*rpc.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}
	client, err := l.dial(ctx)
	if err != nil {
		return nil, err
	}
	l.client = client
	return client, nil
}

func (l *RPCLookup) drop(client *rpc.Client) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owned && l.client == client {
		l.client = nil
		client.Close()
	}
}

// AccountStorageKey returns the System.Account storage key of address
func AccountStorageKey(address string) ([]byte, error) {
	id, err := ss58.DecodeAccountID(address)
	if err != nil {
		return nil, err
	}
	if len(id) == ss58.CompressedKeySize {
		hashed := blake2b.Sum256(id)
		id = hashed[:]
	}

	h, err := blake2b.New(16, nil)
	if err != nil {
		return nil, err
	}
	h.Write(id)

	key := make([]byte, 0, len(systemAccountPrefix)+16+len(id))
	key = append(key, systemAccountPrefix...)
	key = h.Sum(key)
	return append(key, id...), nil
}

// DecodeFreeBalance extracts the free balance from a SCALE encoded AccountInfo
func DecodeFreeBalance(data []byte) (*big.Int, error) {
	if len(data) < freeBalanceOffset+u128Size {
		return nil, fmt.Errorf("account info too short: %d bytes", len(data))
	}

	le := data[freeBalanceOffset : freeBalanceOffset+u128Size]
	be := make([]byte, u128Size)
	for i, b := range le {
		be[u128Size-1-i] = b
	}
	return new(big.Int).SetBytes(be), nil
}
