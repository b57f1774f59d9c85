package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pw1" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := VerifyPassword(hash, "pw1"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "pw2"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	h1, err := HashPassword("same-plaintext")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same-plaintext")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatal("equal plaintexts must produce distinct digests")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	if err := VerifyPassword("", "pw"); err == nil {
		t.Fatal("expected error for empty digest")
	}
	if err := VerifyPassword("not-a-bcrypt-digest", "pw"); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
