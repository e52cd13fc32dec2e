package store

import (
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func getQuery(tenantID, id uuid.UUID, forUpdate bool) (string, []any, error) {
	q := psql.Select(selectColumns...).
		From("transactions").
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id})

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	return q.ToSql()
}

// listQuery translates a ListFilter into SQL. It must select the same subset as
// ListFilter.Matches.
func listQuery(f transaction.ListFilter) (string, []any, error) {
	q := psql.Select(selectColumns...).
		From("transactions").
		Where(squirrel.Eq{"tenant_id": f.TenantID})

	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"due_date": transaction.Day(*f.DateFrom)})
	}

	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"due_date": transaction.Day(*f.DateTo)})
	}

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*f.Status)})
	}

	if f.Type != nil {
		q = q.Where(squirrel.Eq{"type": string(*f.Type)})
	}

	switch {
	case f.Category == nil:
	case *f.Category == transaction.Uncategorized:
		q = q.Where(squirrel.Or{
			squirrel.Eq{"category": nil},
			squirrel.Eq{"category": transaction.Uncategorized},
		})
	default:
		q = q.Where(squirrel.Eq{"category": *f.Category})
	}

	if f.CostCenter != nil {
		q = q.Where(squirrel.Eq{"cost_center": *f.CostCenter})
	}

	if f.Search != nil {
		pattern := "%" + escapeLike(*f.Search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"description": pattern},
			squirrel.ILike{"category": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}

	return q.OrderBy("due_date ASC NULLS LAST", "id ASC").ToSql()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func duplicatesQuery(tenantID uuid.UUID, minDate, maxDate time.Time) (string, []any, error) {
	return psql.Select(selectColumns...).
		From("transactions").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.NotEq{"status": []string{
			string(transaction.StatusExcluded),
			string(transaction.StatusCancelled),
		}}).
		Where(squirrel.GtOrEq{"due_date": minDate}).
		Where(squirrel.LtOrEq{"due_date": maxDate}).
		OrderBy("due_date ASC", "id ASC").
		ToSql()
}

type lookupKey struct {
	Date        string
	Amount      string
	Type        transaction.Type
	Description string
}

func paramsKey(p transaction.CreateParams) lookupKey {
	k := lookupKey{
		Amount:      p.Amount.String(),
		Type:        p.Type,
		Description: strings.ToLower(strings.TrimSpace(p.Description)),
	}

	if p.DueDate != nil {
		k.Date = p.DueDate.Format(time.DateOnly)
	}

	return k
}

func transactionKey(tx *transaction.Transaction) lookupKey {
	k := lookupKey{
		Amount:      tx.Amount.String(),
		Type:        tx.Type,
		Description: strings.ToLower(tx.Description),
	}

	if tx.DueDate != nil {
		k.Date = tx.DueDate.Format(time.DateOnly)
	}

	return k
}
