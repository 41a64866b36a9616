package qrtoken

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/errs"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	s := NewSigner("test-secret")
	tableID := uuid.New()

	token := s.Issue(tableID, time.Hour)

	decoded, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if decoded.TableID != tableID {
		t.Errorf("TableID = %s, want %s", decoded.TableID, tableID)
	}
	if decoded.Expired(time.Now()) {
		t.Error("fresh token reported expired")
	}
	if got := decoded.ExpiresAt.Sub(decoded.IssuedAt); got != time.Hour {
		t.Errorf("token window = %v, want 1h", got)
	}
}

// An expired token must fail the freshness check while its signature
// still verifies, so integrity failures and freshness failures stay
// distinguishable.
func TestVerify_ExpiredTokenStillVerifies(t *testing.T) {
	s := NewSigner("test-secret")
	token := s.Issue(uuid.New(), 0)

	decoded, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v, want valid signature on expired token", err)
	}
	if !decoded.Expired(time.Now().Add(time.Second)) {
		t.Error("zero-ttl token not reported expired one second later")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token := NewSigner("secret-a").Issue(uuid.New(), time.Hour)

	_, err := NewSigner("secret-b").Verify(token)
	if !errs.IsCode(err, errs.CodeInvalidSignature) {
		t.Fatalf("Verify() error = %v, want %s", err, errs.CodeInvalidSignature)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	s := NewSigner("test-secret")
	token := s.Issue(uuid.New(), time.Hour)

	raw, _ := base64.RawURLEncoding.DecodeString(token)
	parts := strings.Split(string(raw), "|")
	// extend the expiry by a digit
	parts[2] = parts[2] + "9"
	tampered := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(parts, "|")))

	_, err := s.Verify(tampered)
	if !errs.IsCode(err, errs.CodeInvalidSignature) {
		t.Fatalf("Verify() error = %v, want %s", err, errs.CodeInvalidSignature)
	}
}

func TestVerify_Malformed(t *testing.T) {
	s := NewSigner("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"wrong field count", base64.RawURLEncoding.EncodeToString([]byte("a|b|c"))},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			if !errs.IsCode(err, errs.CodeMalformedToken) {
				t.Errorf("Verify(%q) error = %v, want %s", tt.token, err, errs.CodeMalformedToken)
			}
		})
	}
}
