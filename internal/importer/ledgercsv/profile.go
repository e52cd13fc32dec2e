package ledgercsv

import "strings"

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountPositive is one unsigned column paired with a type column.
	amountPositive amountMode = iota
	// amountSigned is one signed column; negative values are payables.
	amountSigned
	// amountSplit is separate debit and credit columns.
	amountSplit
)

// Profile describes the column layout of a supported CSV export. Header names are
// matched case-insensitively. Optional columns may be left empty.
type Profile struct {
	Name       string
	DateCol    string // due date, or movement date for statements
	DescCol    string
	AmountMode amountMode
	AmountCol  string
	DebitCol   string
	CreditCol  string
	TypeCol    string

	StatusCol     string
	IssueCol      string
	PaidCol       string
	CategoryCol   string
	CostCenterCol string
	NotesCol      string
	CityCol       string

	// Settled profiles describe bank statements: every row is already paid on its date
	// and rows without a parseable date are footers.
	Settled bool
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountPositive:
		cols = append(cols, p.AmountCol, p.TypeCol)
	case amountSigned:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles is tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:          "lancamentos",
		DateCol:       "Vencimento",
		DescCol:       "Descrição",
		AmountMode:    amountPositive,
		AmountCol:     "Valor",
		TypeCol:       "Tipo",
		StatusCol:     "Situação",
		IssueCol:      "Emissão",
		PaidCol:       "Pago em",
		CategoryCol:   "Categoria",
		CostCenterCol: "Centro de custo",
		NotesCol:      "Observações",
		CityCol:       "Cidade",
	},
	{
		Name:          "ledger",
		DateCol:       "Due date",
		DescCol:       "Description",
		AmountMode:    amountPositive,
		AmountCol:     "Amount",
		TypeCol:       "Type",
		StatusCol:     "Status",
		IssueCol:      "Issue date",
		PaidCol:       "Paid at",
		CategoryCol:   "Category",
		CostCenterCol: "Cost center",
		NotesCol:      "Notes",
		CityCol:       "City",
	},
	{
		Name:       "cartão",
		DateCol:    "Data",
		DescCol:    "Descrição",
		AmountMode: amountSplit,
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
		Settled:    true,
	},
	{
		Name:       "extrato",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSigned,
		AmountCol:  "Movimento",
		Settled:    true,
	},
	{
		Name:       "conta",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSigned,
		AmountCol:  "Montante",
		Settled:    true,
	},
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
