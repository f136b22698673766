package config

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeEncryptionKeyBase64(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, 32)
	encoded := base64.StdEncoding.EncodeToString(raw)

	key, err := decodeEncryptionKey(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(key, raw) {
		t.Fatal("decoded key does not match original bytes")
	}
}

func TestDecodeEncryptionKeyRaw(t *testing.T) {
	raw := "0123456789abcdef0123456789abcdef"

	key, err := decodeEncryptionKey(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(key) != raw {
		t.Fatal("raw key was altered during decoding")
	}
}

func TestDecodeEncryptionKeyRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"too short", "short"},
		{"base64 of wrong length", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"33 raw bytes", "0123456789abcdef0123456789abcdef!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeEncryptionKey(tc.value); err == nil {
				t.Fatalf("expected error for %q", tc.value)
			}
		})
	}
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("WPM_TEST_INT", "not-a-number")
	if got := getEnvAsInt("WPM_TEST_INT", 7); got != 7 {
		t.Fatalf("got %d, want fallback 7", got)
	}

	t.Setenv("WPM_TEST_INT", "42")
	if got := getEnvAsInt("WPM_TEST_INT", 7); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}
