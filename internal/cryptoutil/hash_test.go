package cryptoutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

// SHA256Hex

func TestSHA256Hex_KnownVector(t *testing.T) {
	// SHA-256 of empty string is a well-known constant
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex([]byte{})
	if got != want {
		t.Fatalf("SHA256Hex(empty) = %q, want %q", got, want)
	}
}

func TestSHA256Hex_MatchesStdlib(t *testing.T) {
	data := []byte("hello world")
	h := sha256.Sum256(data)
	want := hex.EncodeToString(h[:])

	if got := SHA256Hex(data); got != want {
		t.Fatalf("SHA256Hex = %q, want %q", got, want)
	}
}

func TestSHA256Hex_Lowercase(t *testing.T) {
	got := SHA256Hex([]byte("test"))
	if got != strings.ToLower(got) {
		t.Fatal("SHA256Hex should return lowercase hex")
	}
}

// Fingerprint

func TestFingerprint_Length(t *testing.T) {
	got := Fingerprint("sk-live-abc123")
	if len(got) != 16 {
		t.Fatalf("Fingerprint length = %d, want 16", len(got))
	}
}

func TestFingerprint_PrefixOfSHA256(t *testing.T) {
	secret := "sk-live-abc123"
	full := SHA256Hex([]byte(secret))
	if got := Fingerprint(secret); !strings.HasPrefix(full, got) {
		t.Fatalf("Fingerprint %q is not a prefix of %q", got, full)
	}
}

func TestFingerprint_DoesNotLeakSecret(t *testing.T) {
	secret := "abcdef0123456789"
	if got := Fingerprint(secret); got == secret || strings.Contains(got, "abcdef01") {
		t.Fatalf("Fingerprint %q looks like the raw secret", got)
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	if Fingerprint("k") != Fingerprint("k") {
		t.Fatal("same input should produce same fingerprint")
	}
	if Fingerprint("k1") == Fingerprint("k2") {
		t.Fatal("different inputs should produce different fingerprints")
	}
}
