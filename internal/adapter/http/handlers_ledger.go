package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// decodeJSON parses a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseAmount parses a wire amount string into a decimal.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, raw)
	}
	return amount, nil
}

type depositRequest struct {
	Amount      string           `json:"amount"`
	Percentages map[string]int64 `json:"percentages"`
	Enabled     map[string]bool  `json:"enabled"`
}

func splitConfigFromWire(percentages map[string]int64, enabled map[string]bool) (domain.SplitConfig, error) {
	config := domain.SplitConfig{
		Percentages: make(map[domain.BucketType]int64, len(percentages)),
		Enabled:     make(map[domain.BucketType]bool, len(enabled)),
	}
	for raw, bp := range percentages {
		t, err := domain.ParseBucketType(raw)
		if err != nil || !t.IsStored() {
			return domain.SplitConfig{}, fmt.Errorf("%w: %q in split config", domain.ErrInvalidBucket, raw)
		}
		config.Percentages[t] = bp
	}
	for raw, on := range enabled {
		t, err := domain.ParseBucketType(raw)
		if err != nil || !t.IsStored() {
			return domain.SplitConfig{}, fmt.Errorf("%w: %q in split config", domain.ErrInvalidBucket, raw)
		}
		config.Enabled[t] = on
	}
	return config, nil
}

// handleApplyDeposit consumes a confirmed-deposit webhook and splits the
// amount across the account's buckets.
func (s *Server) handleApplyDeposit(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	config, err := splitConfigFromWire(req.Percentages, req.Enabled)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	allocation, err := s.Ledger.ApplyDeposit(r.Context(), account, amount, config)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	amounts := make(map[string]string, len(allocation))
	for t, credited := range allocation {
		amounts[string(t)] = credited.String()
	}
	success(w, r, map[string]any{"allocated": amounts})
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	from, err := domain.ParseBucketType(req.From)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	to, err := domain.ParseBucketType(req.To)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	if err := s.Ledger.Transfer(r.Context(), account, from, to, amount); err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, map[string]string{"status": "transferred"})
}

type withdrawalRequest struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

func (s *Server) handleWithdrawExternal(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req withdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	from, err := domain.ParseBucketType(req.From)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	if err := s.Ledger.WithdrawExternal(r.Context(), account, from, amount); err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, map[string]string{"status": "withdrawn"})
}

type bucketResponse struct {
	Balance      string `json:"balance"`
	Percentage   int64  `json:"percentageBp"`
	Enabled      bool   `json:"enabled"`
	YieldBalance string `json:"yieldBalance"`
	IsYielding   bool   `json:"isYielding"`
}

func (s *Server) handleGetBuckets(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	set, err := s.Ledger.GetBuckets(r.Context(), account)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	buckets := make(map[string]bucketResponse, len(set))
	for t, b := range set {
		buckets[string(t)] = bucketResponse{
			Balance:      b.Balance.String(),
			Percentage:   b.Percentage,
			Enabled:      b.Enabled,
			YieldBalance: b.YieldBalance.String(),
			IsYielding:   b.IsYielding,
		}
	}
	success(w, r, map[string]any{"buckets": buckets, "total": set.Total().String()})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	summary, err := s.Dashboard.Summarize(r.Context(), account)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	buckets := make(map[string]bucketResponse, len(summary.Buckets))
	for t, b := range summary.Buckets {
		buckets[string(t)] = bucketResponse{
			Balance:      b.Balance.String(),
			Percentage:   b.Percentage,
			Enabled:      b.Enabled,
			YieldBalance: b.YieldBalance.String(),
			IsYielding:   b.IsYielding,
		}
	}
	success(w, r, map[string]any{
		"buckets":       buckets,
		"bucketTotal":   summary.BucketTotal.String(),
		"goalsLocked":   summary.GoalsLocked.String(),
		"yieldValue":    summary.YieldValue.String(),
		"yieldEarned":   summary.YieldEarned.String(),
		"netWorth":      summary.NetWorth.String(),
		"openGoals":     summary.OpenGoals,
		"releasedGoals": summary.ReleasedGoals,
	})
}
