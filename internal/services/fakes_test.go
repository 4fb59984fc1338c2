package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/glamspot/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var errStoreDown = errors.New("connection refused")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ============================================================================
// BOOKINGS
// ============================================================================

type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*models.Booking
	checkedAt map[uuid.UUID]time.Time
	writes    int
	getErr    error
}

func newFakeBookingStore(bookings ...*models.Booking) *fakeBookingStore {
	store := &fakeBookingStore{
		bookings:  make(map[uuid.UUID]*models.Booking),
		checkedAt: make(map[uuid.UUID]time.Time),
	}
	for _, b := range bookings {
		store.bookings[b.ID] = b
	}
	return store
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingStore) GetByPaymentID(_ context.Context, paymentID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.PaymentID != nil && *b.PaymentID == paymentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingStore) ConfirmWithPayment(_ context.Context, id uuid.UUID, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || !models.CanTransition(b.Status, models.BookingStatusConfirmed) {
		return false, nil
	}
	f.writes++
	b.Status = models.BookingStatusConfirmed
	b.PaymentID = &paymentID
	b.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeBookingStore) TransitionStatus(_ context.Context, id uuid.UUID, to models.BookingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || !models.CanTransition(b.Status, to) {
		return false, nil
	}
	f.writes++
	b.Status = to
	b.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeBookingStore) ListConfirmedWithoutPayment(_ context.Context, limit int) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.Status == models.BookingStatusConfirmed && b.HasPayment() {
			out = append(out, *b)
		}
	}
	// never checked first, then oldest check, then oldest update
	sort.Slice(out, func(i, j int) bool {
		ci, cj := f.checkedAt[out[i].ID], f.checkedAt[out[j].ID]
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBookingStore) MarkPaymentChecked(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkedAt[id] = time.Now()
	return nil
}

func (f *fakeBookingStore) status(id uuid.UUID) models.BookingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id].Status
}

// ============================================================================
// PAYMENTS
// ============================================================================

type fakePaymentStore struct {
	mu        sync.Mutex
	rows      map[string]*models.Payment
	insertErr error
	// skipExists simulates a concurrent delivery that passed the pre-check
	skipExists bool
	salonSums  map[uuid.UUID]decimal.Decimal
	sumErr     map[uuid.UUID]error
	// bookings, when set, joins rows to booking status like the real query
	bookings *fakeBookingStore
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{
		rows:      make(map[string]*models.Payment),
		salonSums: make(map[uuid.UUID]decimal.Decimal),
		sumErr:    make(map[uuid.UUID]error),
	}
}

func (f *fakePaymentStore) ExistsByGatewayPaymentID(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipExists {
		return false, nil
	}
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakePaymentStore) Insert(_ context.Context, p *models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if _, ok := f.rows[p.GatewayPaymentID]; ok {
		// unique constraint on gateway_payment_id
		return false, nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.rows[p.GatewayPaymentID] = &cp
	return true, nil
}

// SumCapturedSalonAmount adds the preset salon sum to the salon share of recorded
// rows, leaving out rows whose booking is refunded in the linked booking store
func (f *fakePaymentStore) SumCapturedSalonAmount(ctx context.Context, salonID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sumErr[salonID]; err != nil {
		return decimal.Zero, err
	}
	total := f.salonSums[salonID]
	for _, row := range f.rows {
		if row.SalonID != salonID || row.Status != models.PaymentStatusCaptured {
			continue
		}
		if f.bookings != nil {
			if b, _ := f.bookings.GetByID(ctx, row.BookingID); b != nil && b.Status.IsRefunded() {
				continue
			}
		}
		total = total.Add(row.SalonAmount)
	}
	return total, nil
}

func (f *fakePaymentStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// ============================================================================
// PENALTIES
// ============================================================================

type fakePenaltyStore struct {
	mu        sync.Mutex
	penalties map[uuid.UUID]*models.CancellationPenalty
	settleErr error
}

func newFakePenaltyStore(penalties ...*models.CancellationPenalty) *fakePenaltyStore {
	store := &fakePenaltyStore{penalties: make(map[uuid.UUID]*models.CancellationPenalty)}
	for _, p := range penalties {
		store.penalties[p.ID] = p
	}
	return store
}

func (f *fakePenaltyStore) SettleForUser(_ context.Context, userID, bookingID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		return 0, f.settleErr
	}
	var n int64
	now := time.Now()
	for _, p := range f.penalties {
		if p.UserID == userID && p.IsOutstanding() {
			paidBy := bookingID
			p.IsPaid = true
			p.PaidAt = &now
			p.PaidBookingID = &paidBy
			n++
		}
	}
	return n, nil
}

func (f *fakePenaltyStore) GetByID(_ context.Context, id uuid.UUID) (*models.CancellationPenalty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.penalties[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePenaltyStore) Waive(_ context.Context, id, adminID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.penalties[id]
	if !ok || !p.IsOutstanding() {
		return false, nil
	}
	now := time.Now()
	p.IsWaived = true
	p.WaivedBy = &adminID
	p.WaivedAt = &now
	return true, nil
}

func (f *fakePenaltyStore) ListOutstanding(_ context.Context, userID uuid.UUID) ([]models.CancellationPenalty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.CancellationPenalty{}
	for _, p := range f.penalties {
		if p.UserID == userID && p.IsOutstanding() {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ============================================================================
// PAYOUTS AND SALONS
// ============================================================================

type fakePayoutStore struct {
	mu          sync.Mutex
	settings    *models.PayoutSettings
	payouts     map[uuid.UUID]*models.SalonPayout
	created     []*models.SalonPayout
	outstanding map[uuid.UUID]decimal.Decimal
	createErr   map[uuid.UUID]error
	markRuns    int
}

func newFakePayoutStore(settings *models.PayoutSettings) *fakePayoutStore {
	return &fakePayoutStore{
		settings:    settings,
		payouts:     make(map[uuid.UUID]*models.SalonPayout),
		outstanding: make(map[uuid.UUID]decimal.Decimal),
		createErr:   make(map[uuid.UUID]error),
	}
}

func (f *fakePayoutStore) SumOutstanding(_ context.Context, salonID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding[salonID], nil
}

func (f *fakePayoutStore) Create(_ context.Context, p *models.SalonPayout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[p.SalonID]; err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.payouts[p.ID] = &cp
	f.created = append(f.created, &cp)
	f.outstanding[p.SalonID] = f.outstanding[p.SalonID].Add(p.Amount)
	return nil
}

func (f *fakePayoutStore) GetByID(_ context.Context, id uuid.UUID) (*models.SalonPayout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayoutStore) move(id uuid.UUID, to models.PayoutStatus, from ...models.PayoutStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return false
	}
	for _, status := range from {
		if p.Status == status {
			p.Status = to
			return true
		}
	}
	return false
}

func (f *fakePayoutStore) Approve(_ context.Context, id uuid.UUID) (bool, error) {
	return f.move(id, models.PayoutStatusProcessing, models.PayoutStatusPending), nil
}

func (f *fakePayoutStore) Complete(_ context.Context, id uuid.UUID) (bool, error) {
	return f.move(id, models.PayoutStatusCompleted, models.PayoutStatusProcessing), nil
}

func (f *fakePayoutStore) Fail(_ context.Context, id uuid.UUID, _ string) (bool, error) {
	return f.move(id, models.PayoutStatusFailed, models.PayoutStatusPending, models.PayoutStatusProcessing), nil
}

func (f *fakePayoutStore) GetSettings(_ context.Context) (*models.PayoutSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil {
		return nil, nil
	}
	cp := *f.settings
	return &cp, nil
}

func (f *fakePayoutStore) MarkRun(_ context.Context, _ uuid.UUID, last, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markRuns++
	f.settings.LastRunAt = &last
	f.settings.NextRunAt = &next
	return nil
}

type fakeSalonStore struct {
	salons   []models.Salon
	accounts map[uuid.UUID][]models.SalonBankAccount
	contacts map[uuid.UUID]*models.UserContact
}

func newFakeSalonStore() *fakeSalonStore {
	return &fakeSalonStore{
		accounts: make(map[uuid.UUID][]models.SalonBankAccount),
		contacts: make(map[uuid.UUID]*models.UserContact),
	}
}

func (f *fakeSalonStore) GetByID(_ context.Context, id uuid.UUID) (*models.Salon, error) {
	for i := range f.salons {
		if f.salons[i].ID == id {
			cp := f.salons[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSalonStore) ListPayoutEligible(_ context.Context) ([]models.Salon, error) {
	return f.salons, nil
}

func (f *fakeSalonStore) ListBankAccounts(_ context.Context, salonID uuid.UUID) ([]models.SalonBankAccount, error) {
	return f.accounts[salonID], nil
}

func (f *fakeSalonStore) GetUserContact(_ context.Context, userID uuid.UUID) (*models.UserContact, error) {
	return f.contacts[userID], nil
}

// ============================================================================
// GATEWAY, NOTIFIER, LOCK
// ============================================================================

type fakeGateway struct {
	mu            sync.Mutex
	orderPayments map[string][]models.GatewayPayment
	payments      map[string]*models.GatewayPayment
	refundErr     error
	refunds       []int64
	calls         int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		orderPayments: make(map[string][]models.GatewayPayment),
		payments:      make(map[string]*models.GatewayPayment),
	}
}

func (f *fakeGateway) FetchOrderPayments(_ context.Context, orderID string) ([]models.GatewayPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	items := f.orderPayments[orderID]
	out := make([]models.GatewayPayment, len(items))
	copy(out, items)
	return out, nil
}

func (f *fakeGateway) FetchPayment(_ context.Context, id string) (*models.GatewayPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.payments[id]
	if !ok {
		return nil, &GatewayError{StatusCode: 400, Code: "BAD_REQUEST_ERROR", Description: "The id provided does not exist"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGateway) Refund(_ context.Context, paymentID string, amountMinor int64, _ map[string]string) (*models.GatewayRefund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds = append(f.refunds, amountMinor)
	return &models.GatewayRefund{ID: "rfnd_" + paymentID, PaymentID: paymentID, Amount: amountMinor, Status: "processed"}, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recordingNotifier) last() *models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return nil
	}
	return r.sent[len(r.sent)-1]
}

type fakeRunLock struct {
	held     map[string]bool
	released []string
}

func (l *fakeRunLock) Acquire(_ context.Context, key string) (bool, error) {
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeRunLock) Release(_ context.Context, key string) error {
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

// ============================================================================
// FIXTURES
// ============================================================================

func pendingBooking() *models.Booking {
	orderID := "order_" + uuid.NewString()[:8]
	return &models.Booking{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		SalonID:        uuid.New(),
		SalonName:      "Glow Studio",
		ServiceName:    "Haircut",
		Price:          decimal.NewFromInt(1000),
		BookingDate:    time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		BookingTime:    "10:30",
		Status:         models.BookingStatusPendingPayment,
		GatewayOrderID: &orderID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func capturedPayment(booking *models.Booking, paymentID string) *models.GatewayPayment {
	return &models.GatewayPayment{
		ID:        paymentID,
		OrderID:   *booking.GatewayOrderID,
		Amount:    models.ToMinorUnits(booking.Price),
		Currency:  "INR",
		Status:    "captured",
		Captured:  true,
		Notes:     models.Notes{"booking_id": booking.ID.String()},
		CreatedAt: time.Now().Unix(),
	}
}
