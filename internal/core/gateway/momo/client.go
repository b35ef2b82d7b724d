package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const DefaultTimeout = 15 * time.Second

// ErrGatewayUnavailable marks failures to get an answer from MoMo at all:
// network errors, timeouts, non-2xx responses and unreadable bodies.
var ErrGatewayUnavailable = errors.New("momo: gateway unavailable")

type Credentials struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
}

type CreateRequest struct {
	RequestID   string
	OrderID     string
	Amount      int64
	OrderInfo   string
	RedirectURL string
	IPNURL      string
	ExtraData   string
	RequestType string
}

type CreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink"`
	QrCodeURL    string `json:"qrCodeUrl"`
}

type createBody struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
}

// Client calls the MoMo create-payment endpoint.
type Client struct {
	Endpoint    string
	Credentials Credentials
	HTTP        *http.Client
}

func NewClient(endpoint string, creds Credentials, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Endpoint:    endpoint,
		Credentials: creds,
		HTTP:        &http.Client{Timeout: timeout},
	}
}

// SignCreate returns the signature for a create-payment request body.
func SignCreate(creds Credentials, req CreateRequest) string {
	fields := map[string]string{
		"accessKey":   creds.AccessKey,
		"amount":      strconv.FormatInt(req.Amount, 10),
		"extraData":   req.ExtraData,
		"ipnUrl":      req.IPNURL,
		"orderId":     req.OrderID,
		"orderInfo":   req.OrderInfo,
		"partnerCode": creds.PartnerCode,
		"redirectUrl": req.RedirectURL,
		"requestId":   req.RequestID,
		"requestType": req.RequestType,
	}
	return Sign(RawSignature(CreateFields, fields), creds.SecretKey)
}

// CreatePayment sends a signed create request. A response is returned for
// every answer MoMo gives, including rejections; callers check ResultCode.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	body := createBody{
		PartnerCode: c.Credentials.PartnerCode,
		AccessKey:   c.Credentials.AccessKey,
		RequestID:   req.RequestID,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
		OrderInfo:   req.OrderInfo,
		RedirectURL: req.RedirectURL,
		IPNURL:      req.IPNURL,
		ExtraData:   req.ExtraData,
		RequestType: req.RequestType,
		Signature:   SignCreate(c.Credentials, req),
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var out CreateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: parse body: %v", ErrGatewayUnavailable, err)
	}
	return &out, nil
}
