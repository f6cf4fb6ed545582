package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable address prefix.
type AddressPrefix string

const (
	WICCPrefix AddressPrefix = "wicc"
)

// KeyIDLen is the byte length of an address hash.
const KeyIDLen = 20

// KeyID is the 20-byte hash identifying a key. It is the canonical wallet
// lookup key and the on-chain address payload.
type KeyID [KeyIDLen]byte

func (k KeyID) Bytes() []byte { return k[:] }

func (k KeyID) IsEmpty() bool { return k == KeyID{} }

// Address wraps a KeyID with its bech32 prefix for display.
type Address struct {
	prefix AddressPrefix
	keyID  KeyID
}

func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != KeyIDLen {
		return Address{}, fmt.Errorf("address payload must be %d bytes, got %d", KeyIDLen, len(b))
	}
	var id KeyID
	copy(id[:], b)
	return Address{prefix: prefix, keyID: id}, nil
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.keyID[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) KeyID() KeyID { return a.keyID }

func (a Address) Bytes() []byte { return a.keyID[:] }

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Bytes returns the compressed public key encoding.
func (k *PublicKey) Bytes() []byte {
	return crypto.CompressPubkey(k.PublicKey)
}

// KeyID returns the 20-byte hash of the public key.
func (k *PublicKey) KeyID() KeyID {
	var id KeyID
	copy(id[:], crypto.PubkeyToAddress(*k.PublicKey).Bytes())
	return id
}

func (k *PublicKey) Address() Address {
	addr, _ := NewAddress(WICCPrefix, crypto.PubkeyToAddress(*k.PublicKey).Bytes())
	return addr
}

// IsValid reports whether the key carries a usable curve point.
func (k *PublicKey) IsValid() bool {
	return k != nil && k.PublicKey != nil && k.X != nil
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// ParsePubKey decodes a compressed public key.
func ParsePubKey(b []byte) (*PublicKey, error) {
	key, err := crypto.DecompressPubkey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key}, nil
}

// Sign produces a recoverable 65-byte secp256k1 signature over a 32-byte hash.
func (k *PrivateKey) Sign(hash []byte) ([]byte, error) {
	return crypto.Sign(hash, k.PrivateKey)
}

// VerifySignature checks a signature produced by Sign against a compressed
// public key. The recovery byte is ignored when present.
func VerifySignature(hash, sig, pubKey []byte) bool {
	if len(sig) == 65 {
		sig = sig[:64]
	}
	if len(sig) != 64 {
		return false
	}
	return crypto.VerifySignature(pubKey, hash, sig)
}

// RecoverPubKey recovers the compressed signer key from a 65-byte signature.
func RecoverPubKey(hash, sig []byte) ([]byte, error) {
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return crypto.CompressPubkey(pub), nil
}

// PubKeyEqual compares two compressed public key encodings.
func PubKeyEqual(a, b []byte) bool {
	return len(a) > 0 && bytes.Equal(a, b)
}
