package credit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sgi/credit/internal/credit"
)

type Handler struct {
	svc *credit.Service
}

func NewHandler(svc *credit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{creditId}", h.get)
	r.Put("/{creditId}", h.update)
	r.Delete("/{creditId}", h.delete)
	r.Get("/{creditId}/balance", h.balance)
	r.Post("/{creditId}/charge", h.charge)
	r.Post("/{creditId}/payment", h.payment)
	r.Get("/{creditId}/transactions", h.transactions)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps ledger sentinels onto the service's public error codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		status int
		body   apiError
	)

	switch {
	case errors.Is(err, credit.ErrNotFound):
		status, body = http.StatusNotFound, apiError{"CREDIT-001", "Bank credit not found"}
	case errors.Is(err, credit.ErrOutstandingDebt):
		status, body = http.StatusConflict, apiError{"CREDIT-006", "The client has an outstanding debt."}
	case errors.Is(err, credit.ErrInsufficientBalance):
		status, body = http.StatusPaymentRequired, apiError{"CREDIT-004", "Insufficient balance"}
	case errors.Is(err, credit.ErrInvalidInput):
		status, body = http.StatusBadRequest, apiError{"CREDIT-100", "Invalid input provided"}
	default:
		status, body = http.StatusInternalServerError, apiError{"CREDIT-000", "Operation External failed"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func creditID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "creditId"))
	if err != nil {
		return uuid.Nil, credit.ErrNotFound
	}

	return id, nil
}

type createCreditRequest struct {
	ClientID     string          `json:"clientId"`
	CreditLimit  decimal.Decimal `json:"creditLimit"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Type         credit.Type     `json:"type"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, credit.ErrInvalidInput)
		return
	}

	c, err := h.svc.Create(r.Context(), credit.CreateParams{
		ClientID:     req.ClientID,
		CreditLimit:  req.CreditLimit,
		InterestRate: req.InterestRate,
		Type:         req.Type,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := credit.ListFilter{}

	if s := r.URL.Query().Get("clientId"); s != "" {
		filter.ClientID = new(s)
	}

	if s := r.URL.Query().Get("type"); s != "" {
		filter.Type = new(credit.Type(s))
	}

	credits, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(credits))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(c))
}

type updateCreditRequest struct {
	CreditLimit  decimal.Decimal `json:"creditLimit"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Type         credit.Type     `json:"type"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, credit.ErrInvalidInput)
		return
	}

	c, err := h.svc.Update(r.Context(), id, credit.UpdateParams{
		CreditLimit:  req.CreditLimit,
		InterestRate: req.InterestRate,
		Type:         req.Type,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.svc.Balance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{ClientID: b.ClientID, Balance: b.Balance})
}

type movementRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) charge(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, credit.ErrInvalidInput)
		return
	}

	rec, err := h.svc.Charge(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) payment(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, credit.ErrInvalidInput)
		return
	}

	rec, err := h.svc.Pay(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	id, err := creditID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.svc.Transactions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// ListByClient serves the per-client credit listing mounted under /clients.
func (h *Handler) ListByClient(w http.ResponseWriter, r *http.Request) {
	credits, err := h.svc.ListByClient(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(credits))
}
