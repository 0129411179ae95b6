package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "Password123" {
		t.Error("Expected hash to differ from the plaintext")
	}

	if !CheckPasswordHash("Password123", hash) {
		t.Error("Expected the correct password to verify")
	}

	if CheckPasswordHash("WrongPassword", hash) {
		t.Error("Expected a wrong password to fail verification")
	}
}

func TestCheckPasswordHash_InvalidHash(t *testing.T) {
	if CheckPasswordHash("Password123", "not-a-bcrypt-hash") {
		t.Error("Expected verification against garbage to fail")
	}
}
