package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

type createGoalRequest struct {
	TargetAmount string    `json:"targetAmount"`
	TargetDate   time.Time `json:"targetDate"`
	Description  string    `json:"description"`
}

type goalResponse struct {
	ID               string    `json:"id"`
	TargetAmount     string    `json:"targetAmount"`
	CurrentAmount    string    `json:"currentAmount"`
	TargetDate       time.Time `json:"targetDate"`
	Description      string    `json:"description"`
	Completed        bool      `json:"completed"`
	Locked           bool      `json:"locked"`
	BonusBasisPoints int64     `json:"bonusBasisPoints"`
}

func goalToWire(g *domain.SavingsGoal) goalResponse {
	return goalResponse{
		ID:               g.ID.String(),
		TargetAmount:     g.TargetAmount.String(),
		CurrentAmount:    g.CurrentAmount.String(),
		TargetDate:       g.TargetDate,
		Description:      g.Description,
		Completed:        g.Completed,
		Locked:           g.Locked,
		BonusBasisPoints: g.BonusBasisPoints,
	}
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req createGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	target, err := parseAmount(req.TargetAmount)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	goal, err := s.Goals.CreateGoal(r.Context(), account, target, req.TargetDate, req.Description)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	created(w, r, goalToWire(goal))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	goals, err := s.Goals.ListGoals(r.Context(), account)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	wire := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		wire = append(wire, goalToWire(g))
	}
	success(w, r, map[string]any{"goals": wire})
}

type contributeRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	goalID, err := uuid.Parse(chi.URLParam(r, "goalID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid goal id")
		return
	}

	var req contributeRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	goal, err := s.Goals.Contribute(r.Context(), account, goalID, amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, goalToWire(goal))
}

func (s *Server) handleWithdrawGoal(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	goalID, err := uuid.Parse(chi.URLParam(r, "goalID"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid goal id")
		return
	}

	payout, err := s.Goals.Withdraw(r.Context(), account, goalID)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, map[string]string{"payout": payout.String()})
}
