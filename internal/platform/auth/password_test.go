package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Check(t *testing.T) {
	hash, err := HashPassword("resident123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected bcrypt hash, got %q", hash)
	}
	if hash == "resident123" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "resident123") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	if CheckPassword("not-a-hash", "anything") {
		t.Error("expected malformed hash to fail")
	}
}
