package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if h == "hunter2" {
		t.Fatal("hash equals plaintext")
	}
	if !Verify("hunter2", h) {
		t.Error("correct password rejected")
	}
	if Verify("wrong", h) {
		t.Error("wrong password accepted")
	}
}

func TestHash_DistinctSalts(t *testing.T) {
	h1, err := Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical; salt missing")
	}
}

func TestVerify_EmptyInputs(t *testing.T) {
	if Verify("", "some-hash") {
		t.Error("empty password accepted")
	}
	if Verify("password", "") {
		t.Error("empty hash accepted")
	}
}

func TestHash_Empty(t *testing.T) {
	if _, err := Hash(""); err == nil {
		t.Error("expected error for empty password")
	}
}
