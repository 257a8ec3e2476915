package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bucketpay/bucketpay-backend/internal/usecase/dashboard"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/goals"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/ledger"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/payroll"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/yield"
)

// Server exposes the ledger core over JSON HTTP. Deposits arrive as
// payment-confirmation webhooks; all other routes serve UI action handlers
// and the scheduler.
type Server struct {
	Ledger    *ledger.Service
	Goals     *goals.Service
	Payroll   *payroll.Service
	Yield     *yield.Service
	Dashboard *dashboard.Service
}

// NewServer creates a new HTTP server instance.
func NewServer(ledgerSvc *ledger.Service, goalsSvc *goals.Service, payrollSvc *payroll.Service, yieldSvc *yield.Service, dashboardSvc *dashboard.Service) *Server {
	return &Server{
		Ledger:    ledgerSvc,
		Goals:     goalsSvc,
		Payroll:   payrollSvc,
		Yield:     yieldSvc,
		Dashboard: dashboardSvc,
	}
}

// Router builds the route tree.
func (s *Server) Router(apiToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		success(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Auth(apiToken))

		r.Route("/accounts/{account}", func(r chi.Router) {
			r.Post("/deposits", s.handleApplyDeposit)
			r.Get("/buckets", s.handleGetBuckets)
			r.Post("/transfers", s.handleTransfer)
			r.Post("/withdrawals", s.handleWithdrawExternal)
			r.Get("/summary", s.handleSummary)

			r.Post("/goals", s.handleCreateGoal)
			r.Get("/goals", s.handleListGoals)
			r.Post("/goals/{goalID}/contributions", s.handleContribute)
			r.Post("/goals/{goalID}/withdrawal", s.handleWithdrawGoal)

			r.Post("/yield/conversions", s.handleConvertYield)
			r.Post("/yield/redemptions", s.handleRedeemYield)
			r.Get("/yield/holdings", s.handleHoldings)
		})

		r.Route("/employers/{employer}", func(r chi.Router) {
			r.Post("/employees", s.handleAddEmployee)
			r.Get("/employees", s.handleListEmployees)
			r.Put("/employees/{employeeID}", s.handleUpdateEmployee)
			r.Post("/pool/deposits", s.handleFundPool)
			r.Post("/batches", s.handleScheduleBatch)
		})

		r.Get("/batches/{batchID}", s.handleGetBatch)
		r.Post("/batches/{batchID}/process", s.handleProcessBatch)
	})

	return r
}
