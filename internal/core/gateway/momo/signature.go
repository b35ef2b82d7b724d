// Package momo implements the MoMo signing contract and the create-payment
// call. MoMo signs a hand-ordered key=value list with HMAC-SHA256; the IPN and
// the create request use different field lists.
package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// IPNFields is the signing order of an inbound payment notification.
var IPNFields = []string{
	"accessKey",
	"amount",
	"extraData",
	"message",
	"orderId",
	"orderInfo",
	"orderType",
	"partnerCode",
	"payType",
	"requestId",
	"responseTime",
	"resultCode",
	"transId",
}

// CreateFields is the signing order of the outbound create-payment request.
var CreateFields = []string{
	"accessKey",
	"amount",
	"extraData",
	"ipnUrl",
	"orderId",
	"orderInfo",
	"partnerCode",
	"redirectUrl",
	"requestId",
	"requestType",
}

// RawSignature joins fields in the given order as key=value pairs. Values are
// not encoded and missing fields render as empty strings.
func RawSignature(order []string, fields map[string]string) string {
	var b strings.Builder
	for i, k := range order {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

// Sign returns the hex HMAC-SHA256 of raw.
func Sign(raw, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyIPN recomputes the notification signature and compares it with the
// payload's signature field in constant time.
func VerifyIPN(p Payload, secret string) bool {
	received := p.Field("signature")
	if received == "" {
		return false
	}
	expected := Sign(RawSignature(IPNFields, p.Fields(IPNFields)), secret)
	return hmac.Equal([]byte(expected), []byte(received))
}
