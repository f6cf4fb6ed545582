package crypto

import (
	"crypto/sha256"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := key.PubKey().Address()

	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.KeyID() != addr.KeyID() {
		t.Fatal("address round trip lost the key id")
	}
}

func TestSignVerifyRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	digest := sha256.Sum256([]byte("block header"))

	sig, err := key.Sign(digest[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifySignature(digest[:], sig, key.PubKey().Bytes()) {
		t.Fatal("signature did not verify")
	}

	other, _ := GeneratePrivateKey()
	if VerifySignature(digest[:], sig, other.PubKey().Bytes()) {
		t.Fatal("signature verified against the wrong key")
	}

	recovered, err := RecoverPubKey(digest[:], sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !PubKeyEqual(recovered, key.PubKey().Bytes()) {
		t.Fatal("recovered key mismatch")
	}
}

func TestWalletMinerOnlyLookup(t *testing.T) {
	w := NewWallet()
	owner, _ := GeneratePrivateKey()
	miner, _ := GeneratePrivateKey()
	w.AddKey(owner)
	w.AddMinerKey(miner)

	if _, ok := w.GetKey(owner.PubKey().KeyID(), true); ok {
		t.Fatal("owner key satisfied a miner-only lookup")
	}
	if _, ok := w.GetKey(miner.PubKey().KeyID(), true); !ok {
		t.Fatal("miner key not found for miner-only lookup")
	}
	if _, ok := w.GetKey(owner.PubKey().KeyID(), false); !ok {
		t.Fatal("owner key not found")
	}

	digest := sha256.Sum256([]byte("x"))
	if _, err := w.Sign(KeyID{0xff}, digest[:]); err == nil {
		t.Fatal("signing with an unknown key succeeded")
	}
}
