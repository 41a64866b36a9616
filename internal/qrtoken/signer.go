// Package qrtoken issues and verifies the signed tokens embedded into
// table QR codes. A token binds a table identity to a time window; it is
// derived data, never persisted.
package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/errs"
)

const delimiter = "|"

// Signer signs and verifies capability tokens with a shared secret
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer for the given shared secret
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Decoded is the verified payload of a capability token
type Decoded struct {
	TableID   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's freshness window has passed.
// Expiry is a policy check separate from signature verification, so a
// token can still be verified for audit after it expires.
func (d Decoded) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Issue creates a signed token for a table valid for ttl from now
func (s *Signer) Issue(tableID uuid.UUID, ttl time.Duration) string {
	iat := time.Now().UTC()
	exp := iat.Add(ttl)

	payload := strings.Join([]string{
		tableID.String(),
		strconv.FormatInt(iat.UnixMilli(), 10),
		strconv.FormatInt(exp.UnixMilli(), 10),
	}, delimiter)

	sig := s.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + delimiter + sig))
}

// Verify decodes a token and checks its signature. It does NOT check
// expiry; callers apply Decoded.Expired as a separate freshness policy.
func (s *Signer) Verify(token string) (Decoded, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Decoded{}, errs.New(errs.CodeMalformedToken, "token is not valid base64url")
	}

	parts := strings.Split(string(raw), delimiter)
	if len(parts) != 4 {
		return Decoded{}, errs.New(errs.CodeMalformedToken, "token has wrong field count")
	}

	payload := strings.Join(parts[:3], delimiter)
	expected := s.sign(payload)
	if !hmac.Equal([]byte(parts[3]), []byte(expected)) {
		return Decoded{}, errs.New(errs.CodeInvalidSignature, "token signature mismatch")
	}

	tableID, err := uuid.Parse(parts[0])
	if err != nil {
		return Decoded{}, errs.New(errs.CodeMalformedToken, "token table id is not a uuid")
	}
	iat, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Decoded{}, errs.New(errs.CodeMalformedToken, "token issued-at is not a timestamp")
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Decoded{}, errs.New(errs.CodeMalformedToken, "token expiry is not a timestamp")
	}

	return Decoded{
		TableID:   tableID,
		IssuedAt:  time.UnixMilli(iat).UTC(),
		ExpiresAt: time.UnixMilli(exp).UTC(),
	}, nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
