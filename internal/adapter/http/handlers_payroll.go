package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/payroll"
)

type employeeRequest struct {
	Name       string `json:"name"`
	PayoutRef  string `json:"payoutRef"`
	Salary     string `json:"salary"`
	PaymentDay int    `json:"paymentDay"`
	Active     bool   `json:"active"`
}

type employeeResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PayoutRef  string `json:"payoutRef"`
	Salary     string `json:"salary"`
	PaymentDay int    `json:"paymentDay"`
	Active     bool   `json:"active"`
}

func employeeToWire(e *domain.Employee) employeeResponse {
	return employeeResponse{
		ID:         e.ID.String(),
		Name:       e.Name,
		PayoutRef:  e.PayoutRef,
		Salary:     e.Salary.String(),
		PaymentDay: e.PaymentDay,
		Active:     e.Active,
	}
}

func employeeInputFromWire(req employeeRequest) (payroll.AddEmployeeInput, error) {
	salary, err := parseAmount(req.Salary)
	if err != nil {
		return payroll.AddEmployeeInput{}, err
	}
	return payroll.AddEmployeeInput{
		Name:       req.Name,
		PayoutRef:  req.PayoutRef,
		Salary:     salary,
		PaymentDay: req.PaymentDay,
		Active:     req.Active,
	}, nil
}

func (s *Server) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	employer := chi.URLParam(r, "employer")

	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	input, err := employeeInputFromWire(req)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	employee, err := s.Payroll.AddEmployee(r.Context(), employer, input)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	created(w, r, employeeToWire(employee))
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employer := chi.URLParam(r, "employer")
	employeeID, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid employee id")
		return
	}

	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	input, err := employeeInputFromWire(req)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	employee, err := s.Payroll.UpdateEmployee(r.Context(), employer, employeeID, input)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, employeeToWire(employee))
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employer := chi.URLParam(r, "employer")

	roster, err := s.Payroll.ListEmployees(r.Context(), employer)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	wire := make([]employeeResponse, 0, len(roster))
	for _, e := range roster {
		wire = append(wire, employeeToWire(e))
	}
	success(w, r, map[string]any{"employees": wire})
}

type fundPoolRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleFundPool(w http.ResponseWriter, r *http.Request) {
	employer := chi.URLParam(r, "employer")

	var req fundPoolRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	balance, err := s.Payroll.FundPool(r.Context(), employer, amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, map[string]string{"poolBalance": balance.String()})
}

type scheduleBatchRequest struct {
	BatchDate time.Time `json:"batchDate"`
}

type batchResponse struct {
	ID            string    `json:"id"`
	Employer      string    `json:"employer"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	TotalAmount   string    `json:"totalAmount"`
	Employees     int       `json:"employees"`
	Processed     bool      `json:"processed"`
	Failed        bool      `json:"failed"`
	FailureReason string    `json:"failureReason,omitempty"`
}

func batchToWire(b *domain.PayrollBatch) batchResponse {
	return batchResponse{
		ID:            b.ID.String(),
		Employer:      b.Employer,
		ScheduledAt:   b.ScheduledAt,
		TotalAmount:   b.TotalAmount.String(),
		Employees:     len(b.Lines),
		Processed:     b.Processed,
		Failed:        b.Failed,
		FailureReason: b.FailureReason,
	}
}

func (s *Server) handleScheduleBatch(w http.ResponseWriter, r *http.Request) {
	employer := chi.URLParam(r, "employer")

	var req scheduleBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	batch, err := s.Payroll.Schedule(r.Context(), employer, req.BatchDate)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	created(w, r, batchToWire(batch))
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid batch id")
		return
	}

	batch, err := s.Payroll.GetBatch(r.Context(), batchID)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, batchToWire(batch))
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid batch id")
		return
	}

	batch, err := s.Payroll.Process(r.Context(), batchID)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, batchToWire(batch))
}
