package filter

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// FromQuery builds a ListFilter from the from, to, status, type, category, cost_center
// and q query parameters.
func FromQuery(q url.Values, tenantID uuid.UUID) (transaction.ListFilter, error) {
	f := transaction.ListFilter{
		TenantID:   tenantID,
		Category:   transaction.ParseCategory(q.Get("category")),
		CostCenter: transaction.ParseOption(q.Get("cost_center"), true),
		Search:     transaction.ParseOption(q.Get("q"), false),
	}

	var err error

	if f.DateFrom, err = transaction.ParseDate(q.Get("from")); err != nil {
		return f, err
	}

	if f.DateTo, err = transaction.ParseDate(q.Get("to")); err != nil {
		return f, err
	}

	if f.Status, err = transaction.ParseStatus(q.Get("status")); err != nil {
		return f, err
	}

	if f.Type, err = transaction.ParseType(q.Get("type")); err != nil {
		return f, err
	}

	return f, f.Validate()
}
