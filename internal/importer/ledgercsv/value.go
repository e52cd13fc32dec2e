package ledgercsv

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

var currencyStripper = strings.NewReplacer("R$", "", "€", "", "EUR", "", "BRL", "", " ", "", "\u00a0", "")

// ParseAmount parses Brazilian/European ("1.234,56", "R$ -10,00") and plain ("1234.56")
// amounts. Without a comma, a single dot is the decimal separator and repeated dots
// are thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := currencyStripper.Replace(strings.TrimSpace(s))

	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	return d, nil
}

var dateLayouts = []string{"02/01/2006", "02-01-2006", time.DateOnly}

// ParseDate accepts day-first dates with slashes or dashes and ISO dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseType(s string) (transaction.Type, error) {
	switch normalizeHeader(s) {
	case "payable", "expense", "pagar", "a pagar", "despesa", "saída", "saida":
		return transaction.TypePayable, nil
	case "receivable", "income", "receber", "a receber", "receita", "entrada":
		return transaction.TypeReceivable, nil
	}

	return "", fmt.Errorf("unknown type %q", s)
}

func parseStatus(s string) (transaction.Status, error) {
	switch normalizeHeader(s) {
	case "", "pending", "pendente", "aberto", "em aberto":
		return transaction.StatusPending, nil
	case "paid", "pago", "paga", "recebido", "recebida", "quitado":
		return transaction.StatusPaid, nil
	}

	return "", fmt.Errorf("unsupported status %q", s)
}
