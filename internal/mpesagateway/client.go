package mpesagateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// AuthError means the provider rejected or never issued the client
// credential; the initiation attempt is over.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway authentication failed: %v", e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// NetworkError is a transport failure before the provider produced a
// response.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway request failed: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// GatewayError is a non-success status or malformed body from the provider.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway returned error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL         string
	ConsumerKey     string
	ConsumerSecret  string
	ShortCode       string
	PassKey         string
	CallbackURL     string
	AccountPrefix   string
	TransactionDesc string
	RequestTimeout  time.Duration
	TokenExpirySkew time.Duration
}

type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger

	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if config.AccountPrefix == "" {
		config.AccountPrefix = "SOLAR"
	}
	if config.TransactionDesc == "" {
		config.TransactionDesc = "Energy Payment"
	}
	if config.TokenExpirySkew <= 0 {
		config.TokenExpirySkew = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		logger:     logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken returns a cached bearer credential, refreshing it from the
// client-credentials endpoint when missing or inside the expiry skew.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiresAt.Add(-c.config.TokenExpirySkew)) {
		return c.token, nil
	}

	url := c.config.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &AuthError{Cause: err}
	}
	req.SetBasicAuth(c.config.ConsumerKey, c.config.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &AuthError{Cause: fmt.Errorf("credential endpoint returned status %d: %s", resp.StatusCode, string(body))}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &AuthError{Cause: fmt.Errorf("failed to decode credential response: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", &AuthError{Cause: fmt.Errorf("credential response missing access_token")}
	}

	expiresIn := 3600
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil && secs > 0 {
		expiresIn = secs
	}

	c.token = tr.AccessToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	c.logger.Debug("gateway credential refreshed", "expires_in_seconds", expiresIn)

	return c.token, nil
}

type stkPushPayload struct {
	BusinessShortCode string  `json:"BusinessShortCode"`
	Password          string  `json:"Password"`
	Timestamp         string  `json:"Timestamp"`
	TransactionType   string  `json:"TransactionType"`
	Amount            float64 `json:"Amount"`
	PartyA            string  `json:"PartyA"`
	PartyB            string  `json:"PartyB"`
	PhoneNumber       string  `json:"PhoneNumber"`
	CallBackURL       string  `json:"CallBackURL"`
	AccountReference  string  `json:"AccountReference"`
	TransactionDesc   string  `json:"TransactionDesc"`
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type gatewayErrorBody struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// AccountReference builds a per-request reference unique across concurrent
// initiations from the same shortcode: business prefix, requesting user, and
// the request timestamp.
func (c *Client) AccountReference(userID int64, timestamp string) string {
	return fmt.Sprintf("%s-%d-%s", c.config.AccountPrefix, userID, timestamp)
}

// STKPush sends a single payment-initiation request. There is no retry here;
// retry policy belongs to the caller.
func (c *Client) STKPush(ctx context.Context, phone string, amount float64, accountReference string) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")

	payload := stkPushPayload{
		BusinessShortCode: c.config.ShortCode,
		Password:          stkPassword(c.config.ShortCode, c.config.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.config.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.config.CallbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   c.config.TransactionDesc,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stk push payload: %w", err)
	}

	url := c.config.BaseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create stk push request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("sending stk push request",
		"phone", phone,
		"amount", amount,
		"account_reference", accountReference)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Cause: fmt.Errorf("failed to read stk push response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var errBody gatewayErrorBody
		if err := json.Unmarshal(respBody, &errBody); err == nil && errBody.ErrorCode != "" {
			return nil, &GatewayError{StatusCode: resp.StatusCode, Code: errBody.ErrorCode, Message: errBody.ErrorMessage}
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var pushResp STKPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response body: %v", err)}
	}

	if pushResp.ResponseCode != "0" || pushResp.CheckoutRequestID == "" {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Code:       pushResp.ResponseCode,
			Message:    pushResp.ResponseDescription,
		}
	}

	c.logger.Info("stk push accepted by gateway",
		"checkout_request_id", pushResp.CheckoutRequestID,
		"merchant_request_id", pushResp.MerchantRequestID)

	return &pushResp, nil
}

// stkPassword derives the initiation password: base64 over shortcode,
// passkey and timestamp concatenated. Freshness comes from the timestamp,
// not from nonce uniqueness.
func stkPassword(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}
