package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type transactionResponse struct {
	ID          uuid.UUID          `json:"id"`
	Type        transaction.Type   `json:"type"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      transaction.Status `json:"status"`
	IssueDate   *date              `json:"issue_date,omitempty"`
	DueDate     *date              `json:"due_date,omitempty"`
	PaidAt      *date              `json:"paid_at,omitempty"`
	ExcludedAt  *time.Time         `json:"excluded_at,omitempty"`
	Category    *string            `json:"category,omitempty"`
	CostCenter  *string            `json:"cost_center,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
	CityRef     *string            `json:"city_ref,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Description: tx.Description,
		Amount:      tx.Amount,
		Status:      tx.Status,
		IssueDate:   fromTime(tx.IssueDate),
		DueDate:     fromTime(tx.DueDate),
		PaidAt:      fromTime(tx.PaidAt),
		ExcludedAt:  tx.ExcludedAt,
		Category:    tx.Category,
		CostCenter:  tx.CostCenter,
		Notes:       tx.Notes,
		CityRef:     tx.CityRef,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
