package category

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Category is a registry entry offered when classifying transactions. Transactions keep the
// name, so removing a category leaves them untouched.
type Category struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Type      transaction.Type
	CreatedAt time.Time
}

type CostCenter struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	CreatedAt time.Time
}
