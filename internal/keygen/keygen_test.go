package keygen

import (
	"regexp"
	"testing"
)

func TestMint_LengthRange(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		k, err := Mint()
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if len(k) < 6 || len(k) > 8 {
			t.Fatalf("iteration %d: len = %d, want 6..8 (key=%q)", i, len(k), k)
		}
		seen[len(k)] = true
	}
	// 500 draws make all three lengths overwhelmingly likely
	for _, n := range []int{6, 7, 8} {
		if !seen[n] {
			t.Errorf("length %d never produced in 500 mints", n)
		}
	}
}

func TestMint_Charset(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Za-z]+$`)
	for i := 0; i < 200; i++ {
		k, err := Mint()
		if err != nil {
			t.Fatal(err)
		}
		if !re.MatchString(k) {
			t.Fatalf("key %q contains non-alphanumeric characters", k)
		}
	}
}

func TestMintLen(t *testing.T) {
	k, err := MintLen(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(k) != 10 {
		t.Errorf("len = %d, want 10", len(k))
	}

	if _, err := MintLen(0); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestMint_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		k, err := Mint()
		if err != nil {
			t.Fatal(err)
		}
		if seen[k] {
			t.Fatalf("duplicate key %q at iteration %d", k, i)
		}
		seen[k] = true
	}
}

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"abc123", true},
		{"ABCdef12", true},
		{"a", true},
		{"", false},
		{"with-dash", false},
		{"with_underscore", false},
		{"has space", false},
		{"123456789012345678901", false}, // 21 chars
		{"12345678901234567890", true},   // 20 chars
	}
	for _, tt := range tests {
		if got := IsWellFormed(tt.key); got != tt.want {
			t.Errorf("IsWellFormed(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
