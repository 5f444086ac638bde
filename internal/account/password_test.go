package account

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordProducesVerifiableDigest(t *testing.T) {
	digest, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if digest == "secret1" {
		t.Fatal("digest must not equal the plaintext")
	}

	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != hashCost {
		t.Fatalf("expected cost %d, got %d", hashCost, cost)
	}

	if err := VerifyPassword(digest, "secret1"); err != nil {
		t.Fatalf("VerifyPassword with correct password: %v", err)
	}
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	digest, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	for _, wrong := range []string{"secret2", "Secret1", "secret1 ", ""} {
		if err := VerifyPassword(digest, wrong); err == nil {
			t.Fatalf("expected verification failure for %q", wrong)
		}
	}
}

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
	if err := VerifyPassword("", "secret1"); err == nil {
		t.Fatal("expected error for empty digest")
	}
}
