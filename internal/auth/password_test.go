package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4.
// Cost 4 is the minimum allowed by the bcrypt library.
func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	ps, err := NewPasswordService(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}
	return ps
}

func TestNewPasswordService_CostBounds(t *testing.T) {
	if _, err := NewPasswordService(3); err == nil {
		t.Error("NewPasswordService(3) should be rejected")
	}
	if _, err := NewPasswordService(32); err == nil {
		t.Error("NewPasswordService(32) should be rejected")
	}
	ps, err := NewPasswordService(0)
	if err != nil {
		t.Fatalf("NewPasswordService(0) error = %v", err)
	}
	if ps.cost != DefaultCost {
		t.Errorf("cost = %d, want DefaultCost %d", ps.cost, DefaultCost)
	}
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService(t)

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_LengthLimits(t *testing.T) {
	ps := newTestPasswordService(t)

	if _, err := ps.Hash(""); err == nil {
		t.Error("Hash(\"\") should be rejected")
	}
	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() should accept a 72-byte password, got: %v", err)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
		wantAny  bool
	}{
		{name: "correct password", hash: hash, password: "correct-horse-battery-staple"},
		{name: "wrong password", hash: hash, password: "Tr0ub4dor&3", wantErr: ErrPasswordMismatch},
		{name: "empty password", hash: hash, password: "", wantErr: ErrPasswordMismatch},
		{name: "garbage hash", hash: "not-a-valid-bcrypt-hash", password: "password", wantAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ps.Verify(tt.hash, tt.password)
			switch {
			case tt.wantAny:
				if err == nil {
					t.Fatal("Verify() should have failed")
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("Verify() error = %v, want nil", err)
				}
			}
		})
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService(t)

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}

func TestVerifyDummy_DoesNotPanic(t *testing.T) {
	ps := newTestPasswordService(t)

	ps.VerifyDummy("anything")
	ps.VerifyDummy("anything else")

	if len(ps.dummyHash) == 0 {
		t.Error("VerifyDummy() should have initialised the dummy hash")
	}
}
