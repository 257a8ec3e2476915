package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketpay/bucketpay-backend/internal/adapter/repository/memory"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/dashboard"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/goals"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/ledger"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/payroll"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/seeder"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/yield"
)

const testToken = "test-token"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	keyed := locks.NewKeyed()

	ledgerSvc := ledger.NewService(store, store, keyed, decimal.NewFromInt(1_000_000))
	goalsSvc := goals.NewService(store, store, store, keyed)
	payrollSvc := payroll.NewService(store, store, keyed, payroll.LogPayer{},
		decimal.NewFromInt(1), decimal.NewFromInt(1_000_000_000), 90*24*time.Hour)
	yieldSvc := yield.NewService(store, store, store, keyed)
	dashboardSvc := dashboard.NewService(store, store, store)

	require.NoError(t, seeder.NewTokenSeeder(store).Seed(context.Background()))

	server := NewServer(ledgerSvc, goalsSvc, payrollSvc, yieldSvc, dashboardSvc)
	return server.Router(testToken)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func depositBody(amount string) map[string]any {
	return map[string]any{
		"amount": amount,
		"percentages": map[string]int64{
			"BILLINGS": 3000, "SAVINGS": 2000, "GROWTH": 2000, "INSTANT": 2000, "SPENDABLE": 1000,
		},
		"enabled": map[string]bool{
			"BILLINGS": true, "SAVINGS": true, "GROWTH": true, "INSTANT": true, "SPENDABLE": true,
		},
	}
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acct-1/buckets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acct-1/buckets", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ResponsesCarryRequestID(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, envelope.RequestID)
	assert.Equal(t, envelope.RequestID, rec.Header().Get("X-Request-ID"))
}

func TestDepositTransferSummaryJourney(t *testing.T) {
	router := newTestRouter(t)

	// Confirmed-deposit webhook splits 1000 across the buckets.
	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/deposits", depositBody("1000"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, envelope.Success)

	rec, envelope = doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/buckets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope.Data.(map[string]any)
	assert.Equal(t, "1000", data["total"])
	buckets := data["buckets"].(map[string]any)
	assert.Equal(t, "300", buckets["BILLINGS"].(map[string]any)["balance"])

	// Internal transfer keeps the total; the summary reflects both.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/transfers", map[string]string{
		"from": "SAVINGS", "to": "INSTANT", "amount": "50",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope = doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := envelope.Data.(map[string]any)
	assert.Equal(t, "1000", summary["bucketTotal"])
	assert.Equal(t, "1000", summary["netWorth"])
}

func TestDeposit_InvalidSplitConfigRejected(t *testing.T) {
	router := newTestRouter(t)

	body := depositBody("1000")
	body["percentages"].(map[string]int64)["SAVINGS"] = 1500 // sum 9500
	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/deposits", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_AMOUNT", envelope.Error.Code)
}

func TestWithdrawal_GrowthPolicyViolationIs403(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/deposits", depositBody("1000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/withdrawals", map[string]string{
		"from": "GROWTH", "amount": "10",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "POLICY_VIOLATION", envelope.Error.Code)
}

func TestTransfer_InsufficientBalanceIs422(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/deposits", depositBody("1000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/transfers", map[string]string{
		"from": "SAVINGS", "to": "INSTANT", "amount": "99999",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INSUFFICIENT_BALANCE", envelope.Error.Code)
}

func TestGetBuckets_UnknownAccountIs404(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/v1/accounts/ghost/buckets", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestGoalJourney_ContributeCompleteWithdraw(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/deposits", depositBody("100000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/goals", map[string]string{
		"targetAmount": "10000",
		"targetDate":   time.Now().Add(60 * 24 * time.Hour).Format(time.RFC3339),
		"description":  "vacation",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	goalID := envelope.Data.(map[string]any)["id"].(string)

	// Withdrawing before completion conflicts.
	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/goals/"+goalID+"/withdrawal", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOT_COMPLETED", envelope.Error.Code)

	// Savings holds 20000; contributing the full target completes the goal.
	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/goals/"+goalID+"/contributions", map[string]string{
		"amount": "10000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	goal := envelope.Data.(map[string]any)
	assert.Equal(t, true, goal["completed"])

	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/goals/"+goalID+"/withdrawal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payout := envelope.Data.(map[string]any)["payout"].(string)
	assert.Equal(t, "10100", payout, "payout carries the completion bonus")
}

func TestPayrollJourney_ScheduleAndProcess(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/employers/acme/employees", map[string]any{
		"name": "Ada", "payoutRef": "0xada", "salary": "3000", "paymentDay": 28, "active": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, envelope.Error)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/employers/acme/pool/deposits", map[string]string{
		"amount": "10000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/employers/acme/batches", map[string]string{
		"batchDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	batchID := envelope.Data.(map[string]any)["id"].(string)

	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/batches/"+batchID+"/process", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	batch := envelope.Data.(map[string]any)
	assert.Equal(t, true, batch["processed"])

	// Reprocessing a settled batch conflicts.
	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/batches/"+batchID+"/process", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_PROCESSED", envelope.Error.Code)
}

func TestYieldJourney_ConvertAndRedeem(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/deposits", depositBody("100000"))
	require.Equal(t, http.StatusOK, rec.Code)

	// Growth holds 20000; wrap half of it.
	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/yield/conversions", map[string]string{
		"bucket": "GROWTH", "amount": "10000", "symbol": "USDY",
	})
	require.Equal(t, http.StatusOK, rec.Code, envelope.Error)

	rec, envelope = doJSON(t, router, http.MethodGet, "/api/v1/accounts/acct-1/yield/holdings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	holdings := envelope.Data.(map[string]any)["holdings"].([]any)
	require.Len(t, holdings, 1)
	assert.Equal(t, "10000", holdings[0].(map[string]any)["tokenAmount"])

	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/accounts/acct-1/yield/redemptions", map[string]string{
		"bucket": "GROWTH", "tokenAmount": "10000", "symbol": "USDY",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10000", envelope.Data.(map[string]any)["baseAmount"])
}
