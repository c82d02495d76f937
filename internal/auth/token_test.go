package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, issued, expires, err := tm.GenerateToken(717329852)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expires.Sub(issued) != 5*time.Minute {
		t.Fatalf("unexpected ttl %s", expires.Sub(issued))
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 717329852 || claims.Subject != "717329852" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewTokenManager("one", 1)
	token, _, _, err := issuer.GenerateToken(1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("two", 1).ParseToken(token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}

	later := NewTokenManager("one", 1)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := later.ParseToken(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestCompareAPIKey(t *testing.T) {
	hash, err := HashAPIKey("s3cret", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CompareAPIKey(hash, "s3cret"); err != nil {
		t.Fatalf("matching key rejected: %v", err)
	}
	if err := CompareAPIKey(hash, "guess"); err == nil {
		t.Fatalf("wrong key accepted")
	}
}
