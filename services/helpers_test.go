package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret = "test_key_secret"
	testDate   = "2026-01-20"
	testTime   = "19:00"
)

// newTestDB opens a private in-memory sqlite database. A single connection
// serialises transactions the way row locks do on MySQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// fakeProcessor serves payments from memory.
type fakeProcessor struct {
	mu       sync.Mutex
	payments map[string]ProcessorPayment
	calls    int
	err      error
	// onFetch runs before the payment is returned, outside the lock.
	onFetch func()
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{payments: make(map[string]ProcessorPayment)}
}

func (f *fakeProcessor) add(orderID, paymentID string, amount int64, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[paymentID] = ProcessorPayment{
		ID:       paymentID,
		OrderID:  orderID,
		Amount:   amount,
		Currency: "INR",
		Status:   status,
		Captured: status == ProcessorStatusCaptured,
	}
}

func (f *fakeProcessor) FetchPayment(_ context.Context, paymentID string) (*ProcessorPayment, error) {
	f.mu.Lock()
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s unknown to processor", ErrPaymentNotCompleted, paymentID)
	}
	return &p, nil
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingNotifier keeps every event it receives.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (r *recordingNotifier) Notify(_ context.Context, ev models.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	processor *fakeProcessor
	notifier  *recordingNotifier
	core      *Core
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	processor := newFakeProcessor()
	notifier := &recordingNotifier{}
	gate := NewPaymentGate(testSecret, processor)
	return &testEnv{
		db:        db,
		processor: processor,
		notifier:  notifier,
		core:      NewCore(db, DefaultLimits(), gate, nil, notifier),
	}
}

func (e *testEnv) table(t *testing.T, number, capacity int) *models.Table {
	t.Helper()
	table, err := e.core.Tables.Create(context.Background(), TableSpec{Number: number, Capacity: capacity})
	require.NoError(t, err)
	return table
}

// paidClaim registers a captured payment with the processor and returns a
// correctly signed claim for it.
func (e *testEnv) paidClaim(amount int64) PaymentClaim {
	orderID := "order_" + uuid.NewString()[:8]
	paymentID := "pay_" + uuid.NewString()[:8]
	e.processor.add(orderID, paymentID, amount, ProcessorStatusCaptured)
	return PaymentClaim{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: e.core.Gate.Signature(orderID, paymentID),
		Amount:    amount,
	}
}

func draftFor(userID uint, table *int, partySize int) BookingDraft {
	return BookingDraft{
		UserID:      userID,
		GuestName:   "Asha Rao",
		GuestEmail:  "asha@example.com",
		GuestPhone:  "+91 98765 43210",
		PartySize:   partySize,
		Date:        testDate,
		Time:        testTime,
		TableNumber: table,
	}
}

func intPtr(n int) *int {
	return &n
}

var (
	customer = models.Principal{UserID: 7, Role: models.RoleCustomer}
	stranger = models.Principal{UserID: 8, Role: models.RoleCustomer}
	admin    = models.Principal{UserID: 1, Role: models.RoleAdmin}
)

func countBookings(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&n).Error)
	return n
}
