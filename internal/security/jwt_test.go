package security_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/security"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 7*24*time.Hour)

	token, err := manager.GenerateToken("a@x.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if token == "" {
		t.Fatal("token is empty")
	}

	identifier, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if identifier != "a@x.com" {
		t.Errorf("identifier mismatch: got %v, want %v", identifier, "a@x.com")
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 7*24*time.Hour)

	// Invalid token format
	if _, err := manager.ValidateToken("invalid-token"); !errors.Is(err, security.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for invalid token, got %v", err)
	}

	// Empty token
	if _, err := manager.ValidateToken(""); err == nil {
		t.Error("expected error for empty token, got nil")
	}

	// Token signed with different secret
	otherManager := security.NewJWTManager("different-secret-key-32-chars!!", 7*24*time.Hour)
	token, _ := otherManager.GenerateToken("a@x.com")

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected error for token signed with different secret, got nil")
	}
}

func TestJWTManager_CorruptedToken(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", time.Hour)

	token, err := manager.GenerateToken("a@x.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// Flip one character inside the signature
	b := []byte(token)
	i := len(b) - 5
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}

	if _, err := manager.ValidateToken(string(b)); !errors.Is(err, security.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for corrupted token, got %v", err)
	}
}

func TestJWTManager_LastCharacterFlips(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", time.Hour)

	token, err := manager.GenerateToken("a@x.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := len(token) - 1
	for _, c := range []byte(alphabet) {
		if c == token[last] {
			continue
		}
		corrupted := token[:last] + string(c)
		if _, err := manager.ValidateToken(corrupted); !errors.Is(err, security.ErrTokenInvalid) {
			t.Errorf("last character %q -> %q accepted", token[last], c)
		}
	}
}

func TestJWTManager_Expired(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", -time.Minute)

	token, err := manager.GenerateToken("a@x.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := manager.ValidateToken(token); !errors.Is(err, security.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestJWTManager_TokenTTL(t *testing.T) {
	ttl := 30 * time.Minute
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", ttl)

	if manager.TokenTTL() != ttl {
		t.Errorf("token TTL mismatch: got %v, want %v", manager.TokenTTL(), ttl)
	}
}

// BenchmarkJWTGeneration benchmarks token generation
func BenchmarkJWTGeneration(b *testing.B) {
	manager := security.NewJWTManager("benchmark-secret-key-32-chars!!", 7*24*time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = manager.GenerateToken("test@example.com")
	}
}
