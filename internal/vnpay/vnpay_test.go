package vnpay

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleParams() map[string]string {
	return map[string]string{
		"vnp_Amount":            "19440000",
		"vnp_TxnRef":            "202506151200001234",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
		"vnp_OrderInfo":         "Payment order abc",
		"vnp_BankCode":          "NCB",
	}
}

func TestBuildQuery(t *testing.T) {
	params := map[string]string{
		"b_key":             "two words",
		"a_key":             "value",
		"empty":             "",
		ParamSecureHash:     "deadbeef",
		ParamSecureHashType: "HmacSHA512",
	}

	got := BuildQuery(params)
	want := "a_key=value&b_key=two%20words"
	if got != want {
		t.Errorf("BuildQuery() = %q, want %q", got, want)
	}
}

func TestVerifyChecksum(t *testing.T) {
	secret := "gateway-secret"
	params := sampleParams()
	params[ParamSecureHash] = HmacSHA512(secret, BuildQuery(params))

	if !VerifyChecksum(params, secret) {
		t.Fatal("VerifyChecksum() = false for a correctly signed payload")
	}

	// signature comparison is case-insensitive
	params[ParamSecureHash] = strings.ToUpper(params[ParamSecureHash])
	if !VerifyChecksum(params, secret) {
		t.Fatal("VerifyChecksum() = false for uppercased signature")
	}
}

// Flipping any single parameter byte must invalidate the checksum.
func TestVerifyChecksum_Tampered(t *testing.T) {
	secret := "gateway-secret"
	base := sampleParams()
	signed := HmacSHA512(secret, BuildQuery(base))

	for key := range base {
		params := sampleParams()
		params[ParamSecureHash] = signed
		params[key] = params[key] + "x"

		if VerifyChecksum(params, secret) {
			t.Errorf("VerifyChecksum() = true after mutating %s", key)
		}
	}
}

func TestVerifyChecksum_MissingHash(t *testing.T) {
	if VerifyChecksum(sampleParams(), "gateway-secret") {
		t.Fatal("VerifyChecksum() = true with no vnp_SecureHash present")
	}
}

func TestSuccess(t *testing.T) {
	tests := []struct {
		name   string
		rsp    string
		status string
		want   bool
	}{
		{"both success", "00", "00", true},
		{"declined response", "24", "00", false},
		{"pending status", "00", "01", false},
		{"missing codes", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := map[string]string{
				ParamResponseCode:      tt.rsp,
				ParamTransactionStatus: tt.status,
			}
			if got := Success(params); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToVnpAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"194400", "19440000"},
		{"100.50", "10050"},
		{"0", "0"},
	}
	for _, tt := range tests {
		if got := ToVnpAmount(decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("ToVnpAmount(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestNewTxnRef_UniqueFormat(t *testing.T) {
	ref := NewTxnRef()
	if len(ref) != 21 {
		t.Errorf("NewTxnRef() length = %d (%q), want 21", len(ref), ref)
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			t.Fatalf("NewTxnRef() = %q contains non-digit %q", ref, r)
		}
	}
}

func TestSignQuery_RoundTrip(t *testing.T) {
	secret := "gateway-secret"
	params := sampleParams()

	query := SignQuery(params, secret)
	if !strings.Contains(query, ParamSecureHash+"=") {
		t.Fatalf("SignQuery() missing signature field: %q", query)
	}

	// parse back and verify like the gateway would
	parsed := map[string]string{}
	for _, pair := range strings.Split(query, "&") {
		kv := strings.SplitN(pair, "=", 2)
		parsed[kv[0]] = kv[1]
	}
	recomputed := HmacSHA512(secret, BuildQuery(sampleParams()))
	if parsed[ParamSecureHash] != recomputed {
		t.Errorf("signature = %q, want %q", parsed[ParamSecureHash], recomputed)
	}
}
