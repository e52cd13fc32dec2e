package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// FilterValues backs the filter form. Option strings use the same values as the HTTP
// query parameters, with "all" meaning no constraint.
type FilterValues struct {
	Timeframe Timeframe
	From      string
	To        string
	Status    string
	Type      string
	Category  string
	Search    string
}

func DefaultFilterValues() FilterValues {
	return FilterValues{
		Timeframe: TimeframeThisMonth,
		Status:    transaction.FilterAll,
		Type:      transaction.FilterAll,
	}
}

// ListFilter converts the form values for tenantID, resolving timeframes against now.
func (v FilterValues) ListFilter(tenantID uuid.UUID, now time.Time) (transaction.ListFilter, error) {
	f := transaction.ListFilter{
		TenantID: tenantID,
		Category: transaction.ParseCategory(v.Category),
		Search:   transaction.ParseOption(v.Search, false),
	}

	var err error

	if f.Status, err = transaction.ParseStatus(v.Status); err != nil {
		return f, err
	}

	if f.Type, err = transaction.ParseType(v.Type); err != nil {
		return f, err
	}

	if v.Timeframe == TimeframeCustom {
		if f.DateFrom, err = transaction.ParseDate(v.From); err != nil {
			return f, err
		}

		if f.DateTo, err = transaction.ParseDate(v.To); err != nil {
			return f, err
		}
	} else {
		f.DateFrom, f.DateTo = v.Timeframe.Range(now)
	}

	return f, f.Validate()
}

// Label summarises the active filter for headers.
func (v FilterValues) Label() string {
	label := v.Timeframe.String()
	if v.Timeframe == TimeframeCustom {
		label = fmt.Sprintf("%s..%s", orDash(v.From), orDash(v.To))
	}

	label += " | status: " + v.Status + " | type: " + v.Type

	if v.Category != "" {
		label += " | category: " + v.Category
	}

	if v.Search != "" {
		label += fmt.Sprintf(" | search: %q", v.Search)
	}

	return label
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func newFilterForm(v *FilterValues) *huh.Form {
	tfOptions := make([]huh.Option[Timeframe], len(timeframes))
	for i, tf := range timeframes {
		tfOptions[i] = huh.NewOption(tf.String(), tf)
	}

	validDate := func(s string) error {
		_, err := transaction.ParseDate(s)
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Timeframe]().
				Title("Timeframe").
				Options(tfOptions...).
				Value(&v.Timeframe),

			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption("All", transaction.FilterAll),
					huh.NewOption("Pending", string(transaction.StatusPending)),
					huh.NewOption("Paid", string(transaction.StatusPaid)),
					huh.NewOption("Excluded", string(transaction.StatusExcluded)),
					huh.NewOption("Cancelled", string(transaction.StatusCancelled)),
				).
				Value(&v.Status),

			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("All", transaction.FilterAll),
					huh.NewOption("Payable", string(transaction.TypePayable)),
					huh.NewOption("Receivable", string(transaction.TypeReceivable)),
				).
				Value(&v.Type),

			huh.NewInput().
				Title("Category").
				Placeholder("all").
				Value(&v.Category),

			huh.NewInput().
				Title("Search").
				Value(&v.Search),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("From").
				Placeholder("YYYY-MM-DD").
				Value(&v.From).
				Validate(validDate),

			huh.NewInput().
				Title("To").
				Placeholder("YYYY-MM-DD").
				Value(&v.To).
				Validate(validDate),
		).WithHideFunc(func() bool { return v.Timeframe != TimeframeCustom }),
	).WithWidth(50).WithShowHelp(false)
}
