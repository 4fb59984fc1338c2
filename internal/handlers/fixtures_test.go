package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glamspot/booking-backend/internal/models"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/glamspot/booking-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testWebhookSecret = "whsec_test"
	testCronSecret    = "cron-secret"
)

var errDatabaseDown = errors.New("database unavailable")

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ----------------------------------------------------------------------------
// Stub services
// ----------------------------------------------------------------------------

type stubLedger struct {
	mu      sync.Mutex
	calls   []string
	settled []bool
	result  *services.EventResult
	err     error
}

func (s *stubLedger) record(name string) (*services.EventResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &services.EventResult{Status: services.EventProcessed}, nil
}

func (s *stubLedger) HandleCaptureEvent(_ context.Context, _ *models.GatewayPayment) (*services.EventResult, error) {
	return s.record("capture")
}

func (s *stubLedger) HandleFailureEvent(_ context.Context, _ *models.GatewayPayment) (*services.EventResult, error) {
	return s.record("failure")
}

func (s *stubLedger) HandleOrderPaid(_ context.Context, _ *models.GatewayOrder, _ *models.GatewayPayment) (*services.EventResult, error) {
	return s.record("order_paid")
}

func (s *stubLedger) HandleRefundEvent(_ context.Context, _ *models.GatewayRefund, settled bool) (*services.EventResult, error) {
	s.mu.Lock()
	s.settled = append(s.settled, settled)
	s.mu.Unlock()
	return s.record("refund")
}

type memoryWebhookLogs struct {
	entries   []*models.WebhookLog
	statuses  map[uuid.UUID]models.WebhookLogStatus
	messages  map[uuid.UUID]string
	createErr error
}

func newMemoryWebhookLogs() *memoryWebhookLogs {
	return &memoryWebhookLogs{
		statuses: map[uuid.UUID]models.WebhookLogStatus{},
		messages: map[uuid.UUID]string{},
	}
}

func (m *memoryWebhookLogs) Create(_ context.Context, entry *models.WebhookLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	m.statuses[entry.ID] = entry.Status
	return nil
}

func (m *memoryWebhookLogs) MarkProcessed(_ context.Context, id uuid.UUID) error {
	m.statuses[id] = models.WebhookLogProcessed
	return nil
}

func (m *memoryWebhookLogs) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	m.statuses[id] = models.WebhookLogFailed
	m.messages[id] = message
	return nil
}

type stubReconciler struct {
	gotActor   services.Actor
	gotBooking uuid.UUID
	gotOrder   string
	resp       *models.ReconcileResponse
	err        error
}

func (s *stubReconciler) ReconcileOrder(_ context.Context, actor services.Actor, bookingID uuid.UUID, orderID string) (*models.ReconcileResponse, error) {
	s.gotActor, s.gotBooking, s.gotOrder = actor, bookingID, orderID
	return s.resp, s.err
}

type stubRefunder struct {
	gotActor  services.Actor
	gotAmount *decimal.Decimal
	err       error
}

func (s *stubRefunder) Refund(_ context.Context, actor services.Actor, bookingID uuid.UUID, override *decimal.Decimal) (*models.RefundResponse, error) {
	s.gotActor, s.gotAmount = actor, override
	if s.err != nil {
		return nil, s.err
	}
	amount := decimal.NewFromInt(1000)
	if override != nil {
		amount = *override
	}
	return &models.RefundResponse{
		Success:       true,
		RefundID:      "rfnd_1",
		RefundStatus:  "processed",
		RefundAmount:  amount,
		EstimatedDays: "5-7 business days",
		BookingID:     bookingID.String(),
	}, nil
}

type stubPayouts struct {
	runs       int
	summary    *models.PayoutRunSummary
	runErr     error
	transition error
	gotReason  string
}

func (s *stubPayouts) RunScheduled(_ context.Context) (*models.PayoutRunSummary, error) {
	s.runs++
	if s.runErr != nil {
		return nil, s.runErr
	}
	if s.summary != nil {
		return s.summary, nil
	}
	return &models.PayoutRunSummary{Success: true, Salons: []string{}, AutoApproved: []string{}}, nil
}

func (s *stubPayouts) payout(id uuid.UUID, status models.PayoutStatus) (*models.SalonPayout, error) {
	if s.transition != nil {
		return nil, s.transition
	}
	return &models.SalonPayout{ID: id, Status: status}, nil
}

func (s *stubPayouts) ApprovePayout(_ context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	return s.payout(id, models.PayoutStatusProcessing)
}

func (s *stubPayouts) CompletePayout(_ context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	return s.payout(id, models.PayoutStatusCompleted)
}

func (s *stubPayouts) FailPayout(_ context.Context, id uuid.UUID, reason string) (*models.SalonPayout, error) {
	s.gotReason = reason
	return s.payout(id, models.PayoutStatusFailed)
}

type stubPenalties struct {
	outstanding []models.CancellationPenalty
	waivedBy    uuid.UUID
	err         error
}

func (s *stubPenalties) ListOutstanding(_ context.Context, _ uuid.UUID) ([]models.CancellationPenalty, error) {
	return s.outstanding, s.err
}

func (s *stubPenalties) Waive(_ context.Context, penaltyID, adminID uuid.UUID) (*models.CancellationPenalty, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.waivedBy = adminID
	return &models.CancellationPenalty{ID: penaltyID, IsWaived: true, WaivedBy: &adminID}, nil
}

type stubCompleter struct {
	gotActor services.Actor
	gotPIN   string
	err      error
}

func (s *stubCompleter) Complete(_ context.Context, actor services.Actor, bookingID uuid.UUID, pin string) (*models.Booking, error) {
	s.gotActor, s.gotPIN = actor, pin
	if s.err != nil {
		return nil, s.err
	}
	return &models.Booking{ID: bookingID, Status: models.BookingStatusCompleted}, nil
}

type stubSweeper struct {
	gotLimit int
	err      error
}

func (s *stubSweeper) Sweep(_ context.Context, limit int) (*models.SweepResult, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return &models.SweepResult{Checked: 3, Repaired: 1}, nil
}

// ----------------------------------------------------------------------------
// Router fixture
// ----------------------------------------------------------------------------

type apiFixture struct {
	ledger     *stubLedger
	logs       *memoryWebhookLogs
	reconciler *stubReconciler
	refunder   *stubRefunder
	payouts    *stubPayouts
	penalties  *stubPenalties
	completer  *stubCompleter
	sweeper    *stubSweeper
	verifier   *services.SignatureVerifier
	jwtService *jwt.Service
	router     *gin.Engine
}

func newAPIFixture() *apiFixture {
	logger := quietLogger()
	f := &apiFixture{
		ledger:     &stubLedger{},
		logs:       newMemoryWebhookLogs(),
		reconciler: &stubReconciler{resp: &models.ReconcileResponse{Status: models.ReconcileCaptured, PaymentID: "pay_1"}},
		refunder:   &stubRefunder{},
		payouts:    &stubPayouts{},
		penalties:  &stubPenalties{},
		completer:  &stubCompleter{},
		sweeper:    &stubSweeper{},
		verifier:   services.NewSignatureVerifier(testWebhookSecret),
		jwtService: jwt.NewService("test-secret", time.Hour),
	}

	routes := &Routes{
		Webhook:        NewWebhookHandler(f.verifier, f.ledger, f.logs, logger),
		Payment:        NewPaymentHandler(f.reconciler, f.refunder, logger),
		Payout:         NewPayoutHandler(f.payouts, logger),
		Penalty:        NewPenaltyHandler(f.penalties, logger),
		Booking:        NewBookingHandler(f.completer, logger),
		Reconciliation: NewReconciliationHandler(f.sweeper, logger),
	}

	f.router = gin.New()
	routes.Register(f.router.Group("/api/v1"), f.jwtService, testCronSecret, logger)
	return f
}

func (f *apiFixture) token(t *testing.T, userID uuid.UUID, roles ...string) string {
	t.Helper()
	token, err := f.jwtService.GenerateAccessToken(userID, "user@example.com", roles, nil)
	require.NoError(t, err)
	return token
}

// do sends a JSON request. body may be a string (sent verbatim) or any
// value to marshal; headers are name/value pairs.
func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewBuffer(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) authed(t *testing.T, method, path string, body interface{}, userID uuid.UUID, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, method, path, body, "Authorization", "Bearer "+f.token(t, userID, roles...))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
