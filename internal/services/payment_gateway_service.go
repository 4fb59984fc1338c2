package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/glamspot/booking-backend/internal/config"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentGatewayService is a client for the payment gateway REST API.
// Calls are bounded by the configured timeout and are never retried; callers
// retry at the application layer.
type PaymentGatewayService struct {
	config config.GatewayConfig
	logger *logrus.Logger
	client *http.Client
}

// NewPaymentGatewayService creates a new gateway client
func NewPaymentGatewayService(cfg config.GatewayConfig, logger *logrus.Logger) *PaymentGatewayService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &PaymentGatewayService{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// refundRequest is the body of a refund call (amount in minor units)
type refundRequest struct {
	Amount int64             `json:"amount"`
	Speed  string            `json:"speed,omitempty"`
	Notes  map[string]string `json:"notes,omitempty"`
}

// FetchOrderPayments lists every payment attempt on an order
func (s *PaymentGatewayService) FetchOrderPayments(ctx context.Context, orderID string) ([]models.GatewayPayment, error) {
	var list models.GatewayPaymentList
	path := fmt.Sprintf("/orders/%s/payments", url.PathEscape(orderID))
	if err := s.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"gateway_order_id": orderID,
		"payments_count":   len(list.Items),
	}).Info("Fetched order payments")

	return list.Items, nil
}

// FetchPayment retrieves a single payment
func (s *PaymentGatewayService) FetchPayment(ctx context.Context, paymentID string) (*models.GatewayPayment, error) {
	var payment models.GatewayPayment
	path := fmt.Sprintf("/payments/%s", url.PathEscape(paymentID))
	if err := s.do(ctx, http.MethodGet, path, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Refund refunds amountMinor (paise) of a captured payment
func (s *PaymentGatewayService) Refund(ctx context.Context, paymentID string, amountMinor int64, notes map[string]string) (*models.GatewayRefund, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("refund requires a payment id")
	}

	s.logger.WithFields(logrus.Fields{
		"gateway_payment_id": paymentID,
		"amount_minor":       amountMinor,
	}).Info("Initiating gateway refund")

	var refund models.GatewayRefund
	path := fmt.Sprintf("/payments/%s/refund", url.PathEscape(paymentID))
	body := &refundRequest{Amount: amountMinor, Speed: "normal", Notes: notes}
	if err := s.do(ctx, http.MethodPost, path, body, &refund); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"gateway_payment_id": paymentID,
		"refund_id":          refund.ID,
		"refund_status":      refund.Status,
	}).Info("Gateway refund accepted")

	return &refund, nil
}

// do performs one authenticated call. Non-2xx responses become *GatewayError.
func (s *PaymentGatewayService) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	endpoint := strings.TrimRight(s.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Failed to call payment gateway")
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
	}).Debug("Payment gateway response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		var errBody models.GatewayErrorBody
		if json.Unmarshal(body, &errBody) == nil {
			gwErr.Code = errBody.Error.Code
			gwErr.Description = errBody.Error.Description
		}
		if gwErr.Description == "" {
			gwErr.Description = strings.TrimSpace(string(body))
		}
		s.logger.WithFields(logrus.Fields{
			"path":        path,
			"status_code": resp.StatusCode,
			"code":        gwErr.Code,
			"description": gwErr.Description,
		}).Warn("Payment gateway rejected request")
		return gwErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.logger.WithFields(logrus.Fields{
			"body":  string(body),
			"error": err.Error(),
		}).Error("Failed to parse payment gateway response")
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
