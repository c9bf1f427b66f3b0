// Package substrate verifies wallet signatures the way Substrate based
// chains produce them: sr25519, ed25519 and secp256k1 ECDSA keys, either as
// bare signatures or as SCALE MultiSignature values carrying a scheme byte.
package substrate

import (
	"bytes"
	"crypto/ed25519"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/signet/internal/ss58"
	"golang.org/x/crypto/blake2b"
)

// Scheme identifies a signature algorithm. Values match the MultiSignature
// variant index.
type Scheme byte

const (
	Ed25519 Scheme = 0x00
	Sr25519 Scheme = 0x01
	Ecdsa   Scheme = 0x02
)

const (
	signatureSize      = 64
	ecdsaSignatureSize = 65
)

// SigningContext is the sr25519 transcript label used by Substrate wallets
var SigningContext = []byte("substrate")

var (
	bytesOpen  = []byte("<Bytes>")
	bytesClose = []byte("</Bytes>")
)

// Verify reports whether signature over message was produced by the key
// behind address. Malformed input of any kind yields false.
func Verify(message, signature []byte, address string) bool {
	_, ok := Detect(message, signature, address)
	return ok
}

// Detect is Verify that also reports which scheme matched.
func Detect(message, signature []byte, address string) (Scheme, bool) {
	accountID, err := ss58.DecodeAccountID(address)
	if err != nil {
		return 0, false
	}

	candidates := messageCandidates(message)

	switch len(signature) {
	case signatureSize:
		if verifyAny(Sr25519, candidates, signature, accountID) {
			return Sr25519, true
		}
		if verifyAny(Ed25519, candidates, signature, accountID) {
			return Ed25519, true
		}
	case ecdsaSignatureSize:
		if verifyAny(Ecdsa, candidates, signature, accountID) {
			return Ecdsa, true
		}
		scheme := Scheme(signature[0])
		if scheme == Ed25519 || scheme == Sr25519 {
			if verifyAny(scheme, candidates, signature[1:], accountID) {
				return scheme, true
			}
		}
	case ecdsaSignatureSize + 1:
		if Scheme(signature[0]) == Ecdsa && verifyAny(Ecdsa, candidates, signature[1:], accountID) {
			return Ecdsa, true
		}
	}

	return 0, false
}

// WrapBytes frames message the way browser extensions do before signing raw
// payloads.
func WrapBytes(message []byte) []byte {
	if isWrapped(message) {
		return message
	}
	out := make([]byte, 0, len(bytesOpen)+len(message)+len(bytesClose))
	out = append(out, bytesOpen...)
	out = append(out, message...)
	return append(out, bytesClose...)
}

func isWrapped(message []byte) bool {
	return len(message) >= len(bytesOpen)+len(bytesClose) &&
		bytes.HasPrefix(message, bytesOpen) && bytes.HasSuffix(message, bytesClose)
}

func messageCandidates(message []byte) [][]byte {
	if isWrapped(message) {
		return [][]byte{message, message[len(bytesOpen) : len(message)-len(bytesClose)]}
	}
	return [][]byte{message, WrapBytes(message)}
}

func verifyAny(scheme Scheme, messages [][]byte, signature, accountID []byte) bool {
	for _, m := range messages {
		if verifyScheme(scheme, m, signature, accountID) {
			return true
		}
	}
	return false
}

func verifyScheme(scheme Scheme, message, signature, accountID []byte) bool {
	switch scheme {
	case Ed25519:
		return verifyEd25519(message, signature, accountID)
	case Sr25519:
		return verifySr25519(message, signature, accountID)
	case Ecdsa:
		return verifyEcdsa(message, signature, accountID)
	}
	return false
}

func verifyEd25519(message, signature, accountID []byte) bool {
	if len(accountID) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(accountID), message, signature)
}

func verifySr25519(message, signature, accountID []byte) bool {
	if len(accountID) != ss58.AccountIDSize || len(signature) != signatureSize {
		return false
	}

	var keyBytes [32]byte
	copy(keyBytes[:], accountID)
	pub, err := schnorrkel.NewPublicKey(keyBytes)
	if err != nil {
		return false
	}

	var sigBytes [64]byte
	copy(sigBytes[:], signature)
	sig := new(schnorrkel.Signature)
	if err := sig.Decode(sigBytes); err != nil {
		return false
	}

	ok, err := pub.Verify(sig, schnorrkel.NewSigningContext(SigningContext, message))
	return err == nil && ok
}

func verifyEcdsa(message, signature, accountID []byte) bool {
	if len(signature) != ecdsaSignatureSize {
		return false
	}

	sig := make([]byte, ecdsaSignatureSize)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return false
	}

	hash := blake2b.Sum256(message)
	pub, err := crypto.SigToPub(hash[:], sig)
	if err != nil {
		return false
	}

	compressed := crypto.CompressPubkey(pub)
	switch len(accountID) {
	case ss58.CompressedKeySize:
		return bytes.Equal(compressed, accountID)
	case ss58.AccountIDSize:
		id := blake2b.Sum256(compressed)
		return bytes.Equal(id[:], accountID)
	}
	return false
}
