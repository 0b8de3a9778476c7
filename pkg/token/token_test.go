package token

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	svc := New("test-secret", time.Hour)

	tok, err := svc.Generate(42)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	claims, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("Expected user 42, got %d", claims.UserID)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := New("secret-a", time.Hour).Generate(1)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	if _, err := New("secret-b", time.Hour).Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	svc := New("test-secret", -time.Minute)

	tok, err := svc.Generate(1)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	if _, err := svc.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	svc := New("test-secret", time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
