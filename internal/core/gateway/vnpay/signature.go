// Package vnpay implements the VNPay signing contract: every parameter except
// the hash fields, sorted by key, form-encoded and joined with '&', then
// HMAC-SHA512 with the merchant hash secret.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const (
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

// CanonicalString builds the string VNPay signs. Values are encoded the way
// an HTML form would encode them (space becomes '+').
func CanonicalString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA512 of the canonical string.
func Sign(params map[string]string, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(CanonicalString(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks vnp_SecureHash against the remaining parameters. params is
// not modified. A missing hash never verifies.
func Verify(params map[string]string, secret string) bool {
	received := params[FieldSecureHash]
	if received == "" {
		return false
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == FieldSecureHash || k == FieldSecureHashType {
			continue
		}
		signed[k] = v
	}

	expected := Sign(signed, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

// BuildPaymentURL signs params and returns the redirect URL for the payment
// page. The signature is appended last, outside the signed set.
func BuildPaymentURL(baseURL string, params map[string]string, secret string) string {
	hash := Sign(params, secret)
	return baseURL + "?" + CanonicalString(params) + "&" + FieldSecureHash + "=" + hash
}
