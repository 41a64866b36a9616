// Package vnpay implements the gateway's canonical parameter signing:
// key-sorted, URL-encoded serialization hashed with HMAC-SHA512. Both
// notification channels (browser return and server IPN) verify with the
// same routine before any state is touched.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// ParamSecureHash holds the gateway signature and is excluded from signing
	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"

	ParamTxnRef            = "vnp_TxnRef"
	ParamResponseCode      = "vnp_ResponseCode"
	ParamTransactionStatus = "vnp_TransactionStatus"
	ParamBankCode          = "vnp_BankCode"
	ParamCardType          = "vnp_CardType"
	ParamAmount            = "vnp_Amount"

	// CodeSuccess is the gateway's code for a successful transaction
	CodeSuccess = "00"
)

var hcmZone = time.FixedZone("ICT", 7*3600)

// URLEncode encodes per the gateway's rules: UTF-8 with %20 for space
func URLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// BuildQuery serializes params for signing: empty values and the
// signature fields are dropped, keys are sorted ascending, and both keys
// and values are URL-encoded.
func BuildQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, URLEncode(k)+"="+URLEncode(params[k]))
	}
	return strings.Join(pairs, "&")
}

// HmacSHA512 returns the lowercase hex HMAC-SHA512 of data
func HmacSHA512(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(strings.TrimSpace(secret)))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyChecksum recomputes the signature over a notification's own
// parameters and compares it, case-insensitively, with the supplied
// vnp_SecureHash. It must be called before any state is read or written.
func VerifyChecksum(params map[string]string, secret string) bool {
	secureHash := params[ParamSecureHash]
	if secureHash == "" {
		return false
	}
	calc := HmacSHA512(secret, BuildQuery(params))
	return strings.EqualFold(secureHash, calc)
}

// Success reports whether the notification carries the gateway's
// success response and transaction status codes.
func Success(params map[string]string) bool {
	return params[ParamResponseCode] == CodeSuccess &&
		params[ParamTransactionStatus] == CodeSuccess
}

// ToVnpAmount renders an amount the way the gateway expects: multiplied
// by 100 with no separators.
func ToVnpAmount(amount decimal.Decimal) string {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).String()
}

// NowString formats the current time in the gateway's timestamp layout
func NowString() string {
	return time.Now().In(hcmZone).Format("20060102150405")
}

// PlusMinutesString formats now+minutes in the gateway's timestamp layout
func PlusMinutesString(minutes int) string {
	return time.Now().Add(time.Duration(minutes) * time.Minute).In(hcmZone).Format("20060102150405")
}

// NewTxnRef generates a unique transaction reference: a millisecond
// timestamp plus a random suffix.
func NewTxnRef() string {
	ts := strings.ReplaceAll(time.Now().In(hcmZone).Format("20060102150405.000"), ".", "")
	return ts + fmt.Sprintf("%04d", rand.Intn(9000)+1000)
}

// SignQuery appends the computed signature to a canonical query string
func SignQuery(params map[string]string, secret string) string {
	raw := BuildQuery(params)
	return raw + "&" + ParamSecureHash + "=" + HmacSHA512(secret, raw)
}
