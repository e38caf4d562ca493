package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-reservation/database"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/router"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

const (
	keySecret = "test_key_secret"
	testDate  = "2026-01-20"
	testTime  = "19:00"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test_jwt_secret")
}

// stubProcessor answers payment lookups from memory.
type stubProcessor struct {
	mu       sync.Mutex
	payments map[string]services.ProcessorPayment
	onFetch  func()
}

func (s *stubProcessor) FetchPayment(_ context.Context, paymentID string) (*services.ProcessorPayment, error) {
	s.mu.Lock()
	hook := s.onFetch
	s.onFetch = nil
	p, ok := s.payments[paymentID]
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, services.ErrPaymentNotCompleted
	}
	return &p, nil
}

type testApp struct {
	db        *gorm.DB
	core      *services.Core
	router    *gin.Engine
	processor *stubProcessor
	admin     models.User
	customer  models.User
	other     models.User
}

// setupTestApp builds the full router on an in-memory database seeded with
// an admin and two customers.
func setupTestApp(t *testing.T) *testApp {
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

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	processor := &stubProcessor{payments: make(map[string]services.ProcessorPayment)}
	gate := services.NewPaymentGate(keySecret, processor)
	core := services.NewCore(db, services.DefaultLimits(), gate, services.NewPaymentClaims(rdb), nil)

	app := &testApp{
		db:        db,
		core:      core,
		processor: processor,
		router:    router.SetupRouter(db, core, nil, router.Options{CORSOrigin: "http://localhost"}),
	}
	app.admin = app.seedUser(t, "Admin", "admin@example.com", models.RoleAdmin)
	app.customer = app.seedUser(t, "Asha", "asha@example.com", models.RoleCustomer)
	app.other = app.seedUser(t, "Ravi", "ravi@example.com", models.RoleCustomer)
	return app
}

func (a *testApp) seedUser(t *testing.T, name, email, role string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Name: name, Email: email, Password: string(hashed), Role: role}
	require.NoError(t, a.db.Create(&user).Error)
	return user
}

func (a *testApp) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (a *testApp) table(t *testing.T, number, capacity int) {
	t.Helper()
	_, err := a.core.Tables.Create(context.Background(), services.TableSpec{Number: number, Capacity: capacity})
	require.NoError(t, err)
}

// payment registers a captured payment and returns its signed claim.
func (a *testApp) payment(amount int64) map[string]interface{} {
	orderID := "order_" + uuid.NewString()[:8]
	paymentID := "pay_" + uuid.NewString()[:8]
	a.processor.mu.Lock()
	a.processor.payments[paymentID] = services.ProcessorPayment{
		ID:       paymentID,
		OrderID:  orderID,
		Amount:   amount,
		Currency: "inr",
		Status:   services.ProcessorStatusCaptured,
	}
	a.processor.mu.Unlock()
	return map[string]interface{}{
		"order_id":   orderID,
		"payment_id": paymentID,
		"signature":  a.core.Gate.Signature(orderID, paymentID),
		"amount":     amount,
	}
}

func bookingBody(table int, partySize int, payment map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"guest_name":  "Asha Rao",
		"guest_email": "asha@example.com",
		"guest_phone": "+91 98765 43210",
		"party_size":  partySize,
		"date":        testDate,
		"time":        testTime,
	}
	if table > 0 {
		body["table_number"] = table
	}
	if payment != nil {
		body["payment"] = payment
	}
	return body
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func dataMap(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response data is not an object: %v", response)
	return data
}
