package debt

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sgi/credit/internal/debt"
)

type Handler struct {
	svc *debt.Service
}

func NewHandler(svc *debt.Service) *Handler {
	return &Handler{svc: svc}
}

type debtResponse struct {
	ID       string          `json:"id"`
	CreditID string          `json:"creditId"`
	ClientID string          `json:"clientId"`
	Amount   decimal.Decimal `json:"amount"`
	Status   debt.Status     `json:"status"`
	DueDate  time.Time       `json:"dueDate"`
	Overdue  bool            `json:"overdue"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListByClient serves the per-client debt listing mounted under /clients.
// Overdue is computed at read time and never persisted.
func (h *Handler) ListByClient(w http.ResponseWriter, r *http.Request) {
	debts, err := h.svc.ListByClient(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)

		if err := json.NewEncoder(w).Encode(apiError{"CREDIT-000", "Operation External failed"}); err != nil {
			slog.Error("failed to encode error response", "error", err)
		}

		return
	}

	now := time.Now()
	out := make([]debtResponse, 0, len(debts))

	for _, d := range debts {
		out = append(out, debtResponse{
			ID:       d.ID.String(),
			CreditID: d.CreditID.String(),
			ClientID: d.ClientID,
			Amount:   d.Amount,
			Status:   d.Status,
			DueDate:  d.DueDate,
			Overdue:  debt.Overdue(d, now),
		})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
