package momo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{PartnerCode: "MOMO_TEST", AccessKey: "AK", SecretKey: testSecret}

func TestCreatePaymentSendsSignedBody(t *testing.T) {
	var got createBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"partnerCode":"MOMO_TEST","orderId":"REF1","requestId":"RID","amount":50000,"resultCode":0,"message":"Successful.","payUrl":"https://pay","deeplink":"momo://app","qrCodeUrl":"https://qr"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testCreds, time.Second)
	req := CreateRequest{
		RequestID:   "RID",
		OrderID:     "REF1",
		Amount:      50000,
		OrderInfo:   "Order 1",
		RedirectURL: "https://shop/return",
		IPNURL:      "https://shop/ipn",
		RequestType: "captureWallet",
	}
	resp, err := client.CreatePayment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.ResultCode)
	assert.Equal(t, "https://pay", resp.PayURL)
	assert.Equal(t, "momo://app", resp.Deeplink)

	assert.Equal(t, "AK", got.AccessKey)
	assert.Equal(t, int64(50000), got.Amount)
	expected := Sign("accessKey=AK&amount=50000&extraData=&ipnUrl=https://shop/ipn&orderId=REF1&orderInfo=Order 1&partnerCode=MOMO_TEST&redirectUrl=https://shop/return&requestId=RID&requestType=captureWallet", testSecret)
	assert.Equal(t, expected, got.Signature)
}

func TestCreatePaymentReturnsRejections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultCode":22,"message":"Amount out of range"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, testCreds, time.Second).CreatePayment(context.Background(), CreateRequest{OrderID: "R"})
	require.NoError(t, err)
	assert.Equal(t, 22, resp.ResultCode)
}

func TestCreatePaymentUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, testCreds, 50*time.Millisecond).CreatePayment(context.Background(), CreateRequest{OrderID: "R"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrGatewayUnavailable))
		})
	}
}
