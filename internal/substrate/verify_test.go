package substrate

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/signet/internal/ss58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

var challenge = []byte(`{"uri":"https://example.test","nonce":"abc123"}`)

type signer struct {
	name    string
	scheme  Scheme
	address string
	sign    func(msg []byte) []byte
}

func signers(t *testing.T) []signer {
	t.Helper()

	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	edAddr, err := ss58.Encode(edPub, ss58.Generic)
	require.NoError(t, err)

	srPriv, srPub, err := schnorrkel.GenerateKeypair()
	require.NoError(t, err)
	srKey := srPub.Encode()
	srAddr, err := ss58.Encode(srKey[:], ss58.Generic)
	require.NoError(t, err)

	ecPriv, err := crypto.GenerateKey()
	require.NoError(t, err)
	ecID := blake2b.Sum256(crypto.CompressPubkey(&ecPriv.PublicKey))
	ecAddr, err := ss58.Encode(ecID[:], ss58.Generic)
	require.NoError(t, err)

	return []signer{
		{"ed25519", Ed25519, edAddr, func(msg []byte) []byte {
			return ed25519.Sign(edPriv, msg)
		}},
		{"sr25519", Sr25519, srAddr, func(msg []byte) []byte {
			sig, err := srPriv.Sign(schnorrkel.NewSigningContext(SigningContext, msg))
			require.NoError(t, err)
			enc := sig.Encode()
			return enc[:]
		}},
		{"ecdsa", Ecdsa, ecAddr, func(msg []byte) []byte {
			hash := blake2b.Sum256(msg)
			sig, err := crypto.Sign(hash[:], ecPriv)
			require.NoError(t, err)
			return sig
		}},
	}
}

func TestVerifyGenuineSignatures(t *testing.T) {
	for _, s := range signers(t) {
		t.Run(s.name, func(t *testing.T) {
			sig := s.sign(challenge)

			scheme, ok := Detect(challenge, sig, s.address)
			require.True(t, ok)
			assert.Equal(t, s.scheme, scheme)

			// Extensions sign the wrapped form of the message
			assert.True(t, Verify(challenge, s.sign(WrapBytes(challenge)), s.address))

			// MultiSignature encoding
			assert.True(t, Verify(challenge, append([]byte{byte(s.scheme)}, sig...), s.address))
		})
	}
}

func TestVerifyRejectsSingleBitMutation(t *testing.T) {
	for _, s := range signers(t) {
		t.Run(s.name, func(t *testing.T) {
			sig := s.sign(challenge)

			for i := range sig {
				for bit := 0; bit < 8; bit++ {
					mutated := append([]byte{}, sig...)
					mutated[i] ^= 1 << bit
					assert.False(t, Verify(challenge, mutated, s.address), "signature byte %d bit %d", i, bit)
				}
			}

			for i := range challenge {
				for bit := 0; bit < 8; bit++ {
					mutated := append([]byte{}, challenge...)
					mutated[i] ^= 1 << bit
					assert.False(t, Verify(mutated, sig, s.address), "message byte %d bit %d", i, bit)
				}
			}
		})
	}
}

func TestVerifyWrongAddress(t *testing.T) {
	all := signers(t)
	for i, s := range all {
		other := all[(i+1)%len(all)]
		assert.False(t, Verify(challenge, s.sign(challenge), other.address), s.name)
	}
}

func TestVerifyMalformedInputReturnsFalse(t *testing.T) {
	s := signers(t)[0]
	sig := s.sign(challenge)

	assert.False(t, Verify(challenge, nil, s.address))
	assert.False(t, Verify(challenge, sig[:10], s.address))
	assert.False(t, Verify(challenge, append(sig, 0, 0, 0), s.address))
	assert.False(t, Verify(challenge, sig, "not-an-address"))
	assert.False(t, Verify(challenge, sig, ""))
	assert.False(t, Verify(nil, sig, s.address))
}

func TestWrapBytes(t *testing.T) {
	wrapped := WrapBytes([]byte("hi"))
	assert.Equal(t, "<Bytes>hi</Bytes>", string(wrapped))
	assert.Equal(t, wrapped, WrapBytes(wrapped))
}
