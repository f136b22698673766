package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewVault(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestVaultRoundTrip(t *testing.T) {
	v := testVault(t)

	secrets := []string{
		"ck_1234567890abcdef",
		"",
		"pässword-ünïcode-日本語",
		strings.Repeat("x", 4096),
	}

	for _, secret := range secrets {
		compact, err := v.Encrypt(secret)
		if err != nil {
			t.Fatalf("Encrypt(%q) returned error: %v", secret, err)
		}
		if got := strings.Count(compact, ":"); got != 2 {
			t.Fatalf("compact form has %d delimiters, want 2: %q", got, compact)
		}

		plain, err := v.Decrypt(compact)
		if err != nil {
			t.Fatalf("Decrypt returned error: %v", err)
		}
		if plain != secret {
			t.Fatalf("round trip mismatch: got %q want %q", plain, secret)
		}
	}
}

func TestVaultNoncesDiffer(t *testing.T) {
	v := testVault(t)

	a, err := v.Encrypt("same secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := v.Encrypt("same secret")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two encryptions of the same plaintext produced identical compact ciphertexts")
	}
}

func TestVaultTamperDetection(t *testing.T) {
	v := testVault(t)

	compact, err := v.Encrypt("consumer-secret")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(compact, ":")
	for i, part := range parts {
		raw, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			t.Fatal(err)
		}
		raw[0] ^= 0x01
		tampered := make([]string, 3)
		copy(tampered, parts)
		tampered[i] = base64.StdEncoding.EncodeToString(raw)

		_, err = v.Decrypt(strings.Join(tampered, ":"))
		if !errors.Is(err, ErrIntegrity) {
			t.Fatalf("tampering with part %d: got %v, want ErrIntegrity", i, err)
		}
	}
}

func TestVaultMalformedCompact(t *testing.T) {
	v := testVault(t)

	cases := []string{
		"",
		"onlyonepart",
		"two:parts",
		"a:b:c:d",
		"!!!:!!!:!!!",
	}
	for _, compact := range cases {
		if _, err := v.Decrypt(compact); !errors.Is(err, ErrFormat) {
			t.Fatalf("Decrypt(%q): got %v, want ErrFormat", compact, err)
		}
	}
}

func TestVaultWrongKey(t *testing.T) {
	v := testVault(t)
	other, err := NewVault(bytes.Repeat([]byte{0x43}, 32))
	if err != nil {
		t.Fatal(err)
	}

	compact, err := v.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Decrypt(compact); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("decrypt under wrong key: got %v, want ErrIntegrity", err)
	}
}

func TestVaultRejectsBadKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33} {
		if _, err := NewVault(make([]byte, n)); err == nil {
			t.Fatalf("NewVault accepted %d-byte key", n)
		}
	}
}
