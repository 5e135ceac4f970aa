package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !bytes.Equal(key.Bytes(), restored.Bytes()) {
		t.Fatal("key bytes changed across round trip")
	}
	if key.PubKey().Address().String() != restored.PubKey().Address().String() {
		t.Fatal("restored key derives a different address")
	}
}

func TestPrivateKeyFromBytesRejectsGarbage(t *testing.T) {
	if _, err := PrivateKeyFromBytes([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error for truncated key material")
	}
}

func TestKeyAddressEncoding(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.Prefix() != WagmiPrefix {
		t.Fatalf("prefix mismatch: %s", addr.Prefix())
	}
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(WagmiPrefix)+"1") {
		t.Fatalf("unexpected bech32 rendering: %s", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatal("address bytes changed across encode/decode")
	}
	if got := MustDecodeAddress(encoded); !bytes.Equal(got.Bytes(), addr.Bytes()) {
		t.Fatal("MustDecodeAddress disagrees with DecodeAddress")
	}
}

func TestMustDecodeAddressPanicsOnMalformedInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for malformed address")
		}
	}()
	MustDecodeAddress("not-an-address")
}

func TestModuleAddressesAreDistinctAndStable(t *testing.T) {
	vault := ModuleAddress("staking")
	if vault != ModuleAddress("staking") {
		t.Fatal("module address must be deterministic")
	}
	if vault == ModuleAddress("treasury") {
		t.Fatal("module addresses must differ per module")
	}
}
