package security

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Compare(hash, "admin123"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "admin124"); err == nil {
		t.Fatalf("expected mismatch")
	}
	if _, err := h.Hash(""); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired, got %v", err)
	}
}

func TestResolveSecretHash(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hashed, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	got, err := h.ResolveSecretHash(hashed, "ignored")
	if err != nil || got != hashed {
		t.Fatalf("expected configured hash to be kept, got %q %v", got, err)
	}
	if _, err := h.ResolveSecretHash("not-a-hash", ""); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
	got, err = h.ResolveSecretHash("", "s3cret")
	if err != nil {
		t.Fatalf("resolve plain: %v", err)
	}
	if err := h.Compare(got, "s3cret"); err != nil {
		t.Fatalf("hashed plain secret does not verify: %v", err)
	}
}

func TestRandomTokens(t *testing.T) {
	g := RandomTokenGenerator{Size: 16}
	a, err := g.NewToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, _ := g.NewToken()
	if a == b || len(a) != len(AdminTokenPrefix)+22 || !strings.HasPrefix(a, AdminTokenPrefix) {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}

	short := RandomTokenGenerator{Size: 4, Entropy: bytes.NewReader(make([]byte, 16))}
	tok, err := short.NewToken()
	if err != nil || tok != AdminTokenPrefix+"AAAAAAAAAAAAAAAAAAAAAA" {
		t.Fatalf("expected size raised to 16 bytes, got %q %v", tok, err)
	}

	drained := RandomTokenGenerator{Entropy: bytes.NewReader(make([]byte, 8))}
	if _, err := drained.NewToken(); err == nil {
		t.Fatalf("expected error when entropy runs out")
	}
}
