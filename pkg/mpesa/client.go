package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Client initiates STK push payment prompts against the Daraja API.
type Client interface {
	STKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error)
}

type STKPushRequest struct {
	Amount      int64
	PhoneNumber string // 2547XXXXXXXX
	Reference   string // shows on the payer's statement
	Description string
}

type STKPushResponse struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ResponseDesc      string `json:"ResponseDescription"`
	CustomerMessage   string `json:"CustomerMessage"`
}

type client struct {
	httpClient  *http.Client
	baseURL     string
	consumerKey string
	secret      string
	shortcode   string
	passkey     string
	callbackURL string
}

// NewClient reads MPESA_* environment configuration. The sandbox base URL is the
// default; MPESA_BASE_URL overrides it for production.
func NewClient() Client {
	baseURL := os.Getenv("MPESA_BASE_URL")
	if baseURL == "" {
		baseURL = "https://sandbox.safaricom.co.ke"
	}
	return &client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		consumerKey: os.Getenv("MPESA_CONSUMER_KEY"),
		secret:      os.Getenv("MPESA_CONSUMER_SECRET"),
		shortcode:   os.Getenv("MPESA_SHORTCODE"),
		passkey:     os.Getenv("MPESA_PASSKEY"),
		callbackURL: os.Getenv("MPESA_CALLBACK_URL"),
	}
}

func (c *client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.consumerKey, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa: oauth failed with status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("mpesa: empty access token")
	}
	return body.AccessToken, nil
}

func (c *client) STKPush(ctx context.Context, pushReq *STKPushRequest) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.shortcode + c.passkey + timestamp))

	payload := map[string]interface{}{
		"BusinessShortCode": c.shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            pushReq.Amount,
		"PartyA":            pushReq.PhoneNumber,
		"PartyB":            c.shortcode,
		"PhoneNumber":       pushReq.PhoneNumber,
		"CallBackURL":       c.callbackURL,
		"AccountReference":  pushReq.Reference,
		"TransactionDesc":   pushReq.Description,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var pushResp STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, err
	}
	if pushResp.ResponseCode != "0" {
		return nil, fmt.Errorf("mpesa: stk push rejected: %s", pushResp.ResponseDesc)
	}
	return &pushResp, nil
}
