// Package ss58 converts between raw Substrate account ids and their
// network-prefixed SS58 text form.
package ss58

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/signet/core"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// AccountIDSize is the length of an sr25519/ed25519 public key or hashed ECDSA key
	AccountIDSize = 32

	// CompressedKeySize is the length of a compressed secp256k1 public key
	CompressedKeySize = 33

	// MaxNetworkID is the largest prefix expressible in two bytes
	MaxNetworkID = 16383

	checksumSize = 2
)

// Well known network ids
const (
	Polkadot uint16 = 0
	Kusama   uint16 = 2
	Generic  uint16 = 42
)

var checksumPrefix = []byte("SS58PRE")

// Encode renders accountID as an SS58 address for the given network.
func Encode(accountID []byte, network uint16) (string, error) {
	if err := checkNetwork(network); err != nil {
		return "", err
	}
	if len(accountID) != AccountIDSize && len(accountID) != CompressedKeySize {
		return "", fmt.Errorf("account id must be %d or %d bytes, got %d: %w",
			AccountIDSize, CompressedKeySize, len(accountID), core.ErrMalformedAddress)
	}

	payload := append(encodePrefix(network), accountID...)
	sum := checksum(payload)
	return base58.Encode(append(payload, sum[:checksumSize]...)), nil
}

// Decode parses an SS58 address, returning the account id and the network it
// was encoded for.
func Decode(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) == 0 {
		return nil, 0, fmt.Errorf("invalid base58: %w", core.ErrMalformedAddress)
	}

	network, prefixLen, err := decodePrefix(raw)
	if err != nil {
		return nil, 0, err
	}

	keyLen := len(raw) - prefixLen - checksumSize
	if keyLen != AccountIDSize && keyLen != CompressedKeySize {
		return nil, 0, fmt.Errorf("unexpected decoded length %d: %w", len(raw), core.ErrMalformedAddress)
	}

	payload := raw[:prefixLen+keyLen]
	sum := checksum(payload)
	if !bytes.Equal(sum[:checksumSize], raw[prefixLen+keyLen:]) {
		return nil, 0, fmt.Errorf("checksum mismatch: %w", core.ErrMalformedAddress)
	}

	id := make([]byte, keyLen)
	copy(id, raw[prefixLen:prefixLen+keyLen])
	return id, network, nil
}

// DecodeAccountID accepts either an SS58 address on any network or a
// 0x-prefixed hex public key and returns the raw account id.
func DecodeAccountID(address string) ([]byte, error) {
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		id, err := hexutil.Decode("0x" + address[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", core.ErrMalformedAddress)
		}
		if len(id) != AccountIDSize && len(id) != CompressedKeySize {
			return nil, fmt.Errorf("hex key must be %d bytes, got %d: %w", AccountIDSize, len(id), core.ErrMalformedAddress)
		}
		return id, nil
	}

	id, _, err := Decode(address)
	return id, err
}

// Reencode converts any accepted address form to an SS58 address on network.
func Reencode(address string, network uint16) (string, error) {
	id, err := DecodeAccountID(address)
	if err != nil {
		return "", err
	}
	return Encode(id, network)
}

func checkNetwork(network uint16) error {
	if network > MaxNetworkID || network == 46 || network == 47 {
		return fmt.Errorf("network id %d not allowed: %w", network, core.ErrMalformedAddress)
	}
	return nil
}

func encodePrefix(network uint16) []byte {
	if network < 64 {
		return []byte{byte(network)}
	}
	return []byte{
		byte((network&0xfc)>>2) | 0x40,
		byte(network>>8) | byte(network&0x03)<<6,
	}
}

func decodePrefix(raw []byte) (uint16, int, error) {
	switch {
	case raw[0] < 64:
		return uint16(raw[0]), 1, nil
	case raw[0] < 128:
		if len(raw) < 2 {
			return 0, 0, fmt.Errorf("truncated prefix: %w", core.ErrMalformedAddress)
		}
		lower := uint16(raw[0]&0x3f)<<2 | uint16(raw[1]>>6)
		upper := uint16(raw[1] & 0x3f)
		network := lower | upper<<8
		if err := checkNetwork(network); err != nil {
			return 0, 0, err
		}
		return network, 2, nil
	default:
		return 0, 0, fmt.Errorf("invalid prefix byte %#x: %w", raw[0], core.ErrMalformedAddress)
	}
}

func checksum(payload []byte) [blake2b.Size]byte {
	buf := make([]byte, 0, len(checksumPrefix)+len(payload))
	buf = append(buf, checksumPrefix...)
	buf = append(buf, payload...)
	return blake2b.Sum512(buf)
}
