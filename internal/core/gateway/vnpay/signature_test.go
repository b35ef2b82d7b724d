package vnpay

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "supersecret_vnpay"

func ipnParams(secret string) map[string]string {
	params := map[string]string{
		"vnp_TmnCode":           "TEST_TMN",
		"vnp_Amount":            "5000000",
		"vnp_BankCode":          "NCB",
		"vnp_CardType":          "ATM",
		"vnp_PayDate":           "20240101120000",
		"vnp_OrderInfo":         "Thanh toan don hang #1",
		"vnp_TransactionNo":     "14012345",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
		"vnp_TxnRef":            "A1B2C3D4E5F60718",
	}
	params[FieldSecureHash] = Sign(params, secret)
	params[FieldSecureHashType] = "HMACSHA512"
	return params
}

func TestCanonicalStringSortsAndEncodes(t *testing.T) {
	got := CanonicalString(map[string]string{
		"vnp_TxnRef":    "REF",
		"vnp_Amount":    "100",
		"vnp_OrderInfo": "a b&c=d/é",
	})
	assert.Equal(t, "vnp_Amount=100&vnp_OrderInfo=a+b%26c%3Dd%2F%C3%A9&vnp_TxnRef=REF", got)
}

func TestSignIsLowercaseHexSHA512(t *testing.T) {
	sig := Sign(map[string]string{"a": "1"}, testSecret)
	assert.Len(t, sig, 128)
	assert.Equal(t, strings.ToLower(sig), sig)
}

func TestVerify(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.True(t, Verify(ipnParams(testSecret), testSecret))
	})

	t.Run("uppercase hash accepted", func(t *testing.T) {
		params := ipnParams(testSecret)
		params[FieldSecureHash] = strings.ToUpper(params[FieldSecureHash])
		assert.True(t, Verify(params, testSecret))
	})

	t.Run("hash type is not signed", func(t *testing.T) {
		params := ipnParams(testSecret)
		params[FieldSecureHashType] = "SHA256"
		assert.True(t, Verify(params, testSecret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, Verify(ipnParams(testSecret), "wrong_secret"))
	})

	t.Run("missing hash", func(t *testing.T) {
		params := ipnParams(testSecret)
		delete(params, FieldSecureHash)
		assert.False(t, Verify(params, testSecret))
	})

	t.Run("extra parameter", func(t *testing.T) {
		params := ipnParams(testSecret)
		params["vnp_Extra"] = "x"
		assert.False(t, Verify(params, testSecret))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		params := ipnParams(testSecret)
		Verify(params, testSecret)
		assert.Contains(t, params, FieldSecureHash)
		assert.Contains(t, params, FieldSecureHashType)
	})
}

func TestVerifyRejectsAnySingleByteMutation(t *testing.T) {
	base := ipnParams(testSecret)
	for key, value := range base {
		if key == FieldSecureHash || key == FieldSecureHashType {
			continue
		}
		for i := 0; i < len(value); i++ {
			params := make(map[string]string, len(base))
			for k, v := range base {
				params[k] = v
			}
			b := []byte(value)
			b[i] ^= 0x01
			params[key] = string(b)
			assert.False(t, Verify(params, testSecret), "%s byte %d", key, i)
		}
	}
}

func TestBuildPaymentURL(t *testing.T) {
	params := map[string]string{
		"vnp_Amount":    "5000000",
		"vnp_OrderInfo": "Don hang 1",
		"vnp_TxnRef":    "REF1",
	}
	raw := BuildPaymentURL("https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", params, testSecret)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", u.Host)

	got := map[string]string{}
	for k, v := range u.Query() {
		got[k] = v[0]
	}
	assert.Equal(t, "Don hang 1", got["vnp_OrderInfo"])
	assert.True(t, Verify(got, testSecret))
}
