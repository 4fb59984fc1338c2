package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// HTTPGateway sends SMS through a token-authenticated JSON API
// (POST /login for a bearer token, POST /sms to send).
type HTTPGateway struct {
	apiURL   string
	username string
	password string
	senderID string
	client   *http.Client

	token       string
	tokenMutex  sync.RWMutex
	tokenExpiry time.Time
}

// HTTPConfig holds configuration for the HTTP SMS gateway
type HTTPConfig struct {
	APIURL   string
	Username string
	Password string
	SenderID string
	Timeout  time.Duration
}

// NewHTTPGateway creates a new SMS gateway client
func NewHTTPGateway(config HTTPConfig) *HTTPGateway {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		apiURL:   config.APIURL,
		username: config.Username,
		password: config.Password,
		senderID: config.SenderID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status     string `json:"status"`
	Comment    string `json:"comment"`
	Token      string `json:"token"`
	Expiration int    `json:"expiration"` // seconds
	ErrCode    string `json:"errCode"`
}

type recipient struct {
	Mobile string `json:"mobile"`
}

type sendRequest struct {
	MSISDN        []recipient `json:"msisdn"`
	Message       string      `json:"message"`
	SourceAddress string      `json:"sourceAddress,omitempty"`
	TransactionID int64       `json:"transaction_id"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	ErrCode string `json:"errCode"`
}

// login retrieves an access token
func (g *HTTPGateway) login(ctx context.Context) error {
	var resp loginResponse
	if err := g.postJSON(ctx, "/login", "", loginRequest{Username: g.username, Password: g.password}, &resp); err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	if resp.Status != "success" {
		return fmt.Errorf("login failed: %s (error code: %s)", resp.Comment, resp.ErrCode)
	}

	g.tokenMutex.Lock()
	g.token = resp.Token
	g.tokenExpiry = time.Now().Add(time.Duration(resp.Expiration) * time.Second)
	g.tokenMutex.Unlock()

	return nil
}

// currentToken returns a cached token, refreshing it 5 minutes before expiry
func (g *HTTPGateway) currentToken(ctx context.Context) (string, error) {
	g.tokenMutex.RLock()
	token, expiry := g.token, g.tokenExpiry
	g.tokenMutex.RUnlock()

	if token != "" && time.Now().Before(expiry.Add(-5*time.Minute)) {
		return token, nil
	}

	if err := g.login(ctx); err != nil {
		return "", err
	}

	g.tokenMutex.RLock()
	defer g.tokenMutex.RUnlock()
	return g.token, nil
}

// Send sends a message to a single phone number in +91XXXXXXXXXX form
func (g *HTTPGateway) Send(ctx context.Context, phone, message string) (string, error) {
	token, err := g.currentToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	transactionID := time.Now().UnixMicro()
	req := sendRequest{
		MSISDN:        []recipient{{Mobile: phone}},
		Message:       message,
		SourceAddress: g.senderID,
		TransactionID: transactionID,
	}

	var resp sendResponse
	if err := g.postJSON(ctx, "/sms", token, req, &resp); err != nil {
		return "", fmt.Errorf("failed to send SMS request: %w", err)
	}

	if resp.Status != "success" {
		return "", fmt.Errorf("SMS sending failed: %s (error code: %s)", resp.Comment, resp.ErrCode)
	}

	return strconv.FormatInt(transactionID, 10), nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, path, token string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// GetName returns the name of this SMS gateway
func (g *HTTPGateway) GetName() string {
	return "HTTP SMS Gateway"
}
