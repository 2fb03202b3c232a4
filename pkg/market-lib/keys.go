package marketlib

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

const SignatureLength = ed25519.SignatureSize

type Signature [SignatureLength]byte

func ParseSignature(s string) (Signature, error) {
	var sig Signature
	buf, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("invalid signature: %w", err)
	}
	if len(buf) != SignatureLength {
		return sig, fmt.Errorf(
			"invalid signature: expected %d bytes, got %d", SignatureLength, len(buf),
		)
	}
	copy(sig[:], buf)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// KeyPair is an ed25519 key whose public key is used as the account address.
type KeyPair struct {
	key ed25519.PrivateKey
}

func GenerateKeyPair() (*KeyPair, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{key}, nil
}

func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"invalid seed: expected %d bytes, got %d", ed25519.SeedSize, len(seed),
		)
	}
	return &KeyPair{ed25519.NewKeyFromSeed(seed)}, nil
}

// ParseKeyPair decodes the base58 form of a 64 bytes secret key, the same
// layout used by Solana wallets.
func ParseKeyPair(s string) (*KeyPair, error) {
	buf, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	if len(buf) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf(
			"invalid key: expected %d bytes, got %d", ed25519.PrivateKeySize, len(buf),
		)
	}
	kp, err := KeyPairFromSeed(buf[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if string(kp.key[ed25519.SeedSize:]) != string(buf[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("invalid key: public key does not match secret")
	}
	return kp, nil
}

func (k *KeyPair) Address() Address {
	var addr Address
	copy(addr[:], k.key.Public().(ed25519.PublicKey))
	return addr
}

func (k *KeyPair) Sign(msg []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.key, msg))
	return sig
}

func (k *KeyPair) String() string {
	return base58.Encode(k.key)
}

// Verify checks that sig is a signature of msg by the owner of the given
// address.
func Verify(signer Address, msg []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig[:])
}

// SigningMessage binds a request payload to the method it is sent to.
func SigningMessage(method string, payload []byte) []byte {
	msg := make([]byte, 0, len(method)+1+len(payload))
	msg = append(msg, method...)
	msg = append(msg, '\n')
	return append(msg, payload...)
}
