package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

type convertRequest struct {
	Bucket string `json:"bucket"`
	Amount string `json:"amount"`
	Symbol string `json:"symbol"`
}

func (s *Server) handleConvertYield(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req convertRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	bucket, err := domain.ParseBucketType(req.Bucket)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	symbol, err := domain.ParseTokenSymbol(req.Symbol)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	holding, err := s.Yield.Convert(r.Context(), account, bucket, amount, symbol)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, map[string]string{
		"symbol":      string(holding.Symbol),
		"tokenAmount": holding.TokenAmount.String(),
	})
}

type redeemRequest struct {
	Bucket      string `json:"bucket"`
	TokenAmount string `json:"tokenAmount"`
	Symbol      string `json:"symbol"`
}

func (s *Server) handleRedeemYield(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	bucket, err := domain.ParseBucketType(req.Bucket)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	tokenAmount, err := parseAmount(req.TokenAmount)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	symbol, err := domain.ParseTokenSymbol(req.Symbol)
	if err != nil {
		failDomain(w, r, err)
		return
	}

	baseAmount, err := s.Yield.Redeem(r.Context(), account, bucket, tokenAmount, symbol)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	success(w, r, map[string]string{"baseAmount": baseAmount.String()})
}

type holdingResponse struct {
	Symbol             string `json:"symbol"`
	TokenAmount        string `json:"tokenAmount"`
	OriginalBaseAmount string `json:"originalBaseAmount"`
	CurrentValue       string `json:"currentValue"`
	YieldEarned        string `json:"yieldEarned"`
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	views, err := s.Yield.Holdings(r.Context(), account)
	if err != nil {
		failDomain(w, r, err)
		return
	}
	wire := make([]holdingResponse, 0, len(views))
	for _, v := range views {
		wire = append(wire, holdingResponse{
			Symbol:             string(v.Symbol),
			TokenAmount:        v.TokenAmount.String(),
			OriginalBaseAmount: v.OriginalBaseAmount.String(),
			CurrentValue:       v.CurrentValue.String(),
			YieldEarned:        v.YieldEarned.String(),
		})
	}
	success(w, r, map[string]any{"holdings": wire})
}
