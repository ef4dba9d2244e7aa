package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sgi/credit/internal/credit"
)

type creditResponse struct {
	ID                string          `json:"id"`
	CreditNumber      string          `json:"creditNumber"`
	ClientID          string          `json:"clientId"`
	CreditLimit       decimal.Decimal `json:"creditLimit"`
	ConsumptionAmount decimal.Decimal `json:"consumptionAmount"`
	Balance           decimal.Decimal `json:"balance"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	Type              credit.Type     `json:"type"`
	CreatedDate       time.Time       `json:"createdDate"`
	UpdatedDate       time.Time       `json:"updatedDate"`
}

type balanceResponse struct {
	ClientID string          `json:"clientId"`
	Balance  decimal.Decimal `json:"balance"`
}

func toResponse(c *credit.Credit) creditResponse {
	return creditResponse{
		ID:                c.ID.String(),
		CreditNumber:      c.CreditNumber,
		ClientID:          c.ClientID,
		CreditLimit:       c.CreditLimit,
		ConsumptionAmount: c.ConsumptionAmount,
		Balance:           c.Balance,
		InterestRate:      c.InterestRate,
		Type:              c.Type,
		CreatedDate:       c.CreatedDate,
		UpdatedDate:       c.UpdatedDate,
	}
}

func toResponseList(credits []*credit.Credit) []creditResponse {
	out := make([]creditResponse, 0, len(credits))
	for _, c := range credits {
		out = append(out, toResponse(c))
	}

	return out
}
