package hasher

import "testing"

func TestBcryptHashAndCompare(t *testing.T) {
	h := NewBcrypt(4)

	hash, err := h.Hash("secret-token")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if string(hash) == "secret-token" {
		t.Error("hash should not equal plaintext")
	}

	if !h.Compare(hash, "secret-token") {
		t.Error("Compare() should match the original plaintext")
	}
	if h.Compare(hash, "wrong-token") {
		t.Error("Compare() should reject a different plaintext")
	}
}

func TestBcryptCostClamped(t *testing.T) {
	h := NewBcrypt(99)
	hash, err := h.Hash("x")
	if err != nil {
		t.Fatalf("Hash() with clamped cost error = %v", err)
	}
	if !h.Compare(hash, "x") {
		t.Error("clamped-cost hash should still compare")
	}
}

func TestFake(t *testing.T) {
	var f Fake
	hash, _ := f.Hash("abc")
	if !f.Compare(hash, "abc") {
		t.Error("fake hasher should match identical input")
	}
	if f.Compare(hash, "def") {
		t.Error("fake hasher should reject different input")
	}
}
