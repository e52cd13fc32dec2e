package ledgercsv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/encoding"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Parser reads ledger and bank statement CSV exports. The layout is detected by matching
// header rows against the known profiles and the delimiter from the first line.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns one CreateParams per data row. Any invalid row fails the whole file.
func (p *Parser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, _, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching CSV layout: expected ledger or bank statement columns")
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
}

// sniffDelimiter picks ';' unless the first line has more commas than semicolons.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(br.Size())

	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	if strings.Count(line, ",") > strings.Count(line, ";") {
		return ','
	}

	return ';'
}

// colIndex maps normalised column names to their index in the row.
type colIndex map[string]int

func (c colIndex) index(name string) int {
	if name == "" {
		return -1
	}

	if i, ok := c[normalizeHeader(name)]; ok {
		return i
	}

	return -1
}

// detectProfile scans rows for a header that matches a known profile and returns it with
// the column index map and the header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := normalizeHeader(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if cols.index(name) < 0 {
			return false
		}
	}

	return true
}

// parseRows converts data rows. headerRowNum is the 0-based header index in the file and
// is only used for error messages.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]transaction.CreateParams, error) {
	var params []transaction.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		if blank(row) {
			continue
		}

		var (
			cp  transaction.CreateParams
			ok  bool
			err error
		)

		if p.Settled {
			cp, ok, err = statementRow(p, cols, row)
		} else {
			cp, ok, err = ledgerRow(p, cols, row)
		}

		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		if ok {
			params = append(params, cp)
		}
	}

	return params, nil
}

func ledgerRow(p *Profile, cols colIndex, row []string) (transaction.CreateParams, bool, error) {
	var cp transaction.CreateParams

	cp.Description = cellValue(row, cols.index(p.DescCol))
	if cp.Description == "" {
		return cp, false, fmt.Errorf("missing description")
	}

	typ, err := parseType(cellValue(row, cols.index(p.TypeCol)))
	if err != nil {
		return cp, false, err
	}

	cp.Type = typ

	amount, err := ParseAmount(cellValue(row, cols.index(p.AmountCol)))
	if err != nil {
		return cp, false, err
	}

	if !amount.IsPositive() {
		return cp, false, fmt.Errorf("amount must be greater than zero")
	}

	cp.Amount = amount

	if cp.DueDate, err = optionalDate(row, cols.index(p.DateCol)); err != nil {
		return cp, false, err
	}

	if cp.IssueDate, err = optionalDate(row, cols.index(p.IssueCol)); err != nil {
		return cp, false, err
	}

	if cp.Status, err = parseStatus(cellValue(row, cols.index(p.StatusCol))); err != nil {
		return cp, false, err
	}

	if cp.Status == transaction.StatusPaid {
		if cp.PaidAt, err = optionalDate(row, cols.index(p.PaidCol)); err != nil {
			return cp, false, err
		}

		if cp.PaidAt == nil {
			cp.PaidAt = cp.DueDate
		}

		if cp.PaidAt == nil {
			return cp, false, fmt.Errorf("paid entry needs a payment or due date")
		}
	}

	cp.Category = optionalText(row, cols.index(p.CategoryCol))
	cp.CostCenter = optionalText(row, cols.index(p.CostCenterCol))
	cp.Notes = optionalText(row, cols.index(p.NotesCol))
	cp.CityRef = optionalText(row, cols.index(p.CityCol))

	return cp, true, nil
}

// statementRow reads a settled bank movement. Rows without a date are footers and zero
// movements are skipped.
func statementRow(p *Profile, cols colIndex, row []string) (transaction.CreateParams, bool, error) {
	var cp transaction.CreateParams

	date, err := ParseDate(cellValue(row, cols.index(p.DateCol)))
	if err != nil {
		return cp, false, nil
	}

	amount, typ, err := statementAmount(p, cols, row)
	if err != nil || amount.IsZero() {
		return cp, false, err
	}

	cp.Description = cellValue(row, cols.index(p.DescCol))
	if cp.Description == "" {
		return cp, false, fmt.Errorf("missing description")
	}

	cp.Type = typ
	cp.Amount = amount
	cp.Status = transaction.StatusPaid
	cp.DueDate = &date
	cp.PaidAt = &date

	return cp, true, nil
}

// statementAmount returns the absolute movement and its side: debits are payables.
func statementAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, transaction.Type, error) {
	switch p.AmountMode {
	case amountSplit:
		if s := cellValue(row, cols.index(p.DebitCol)); s != "" {
			d, err := ParseAmount(s)
			if err != nil {
				return decimal.Zero, "", err
			}

			if !d.IsZero() {
				return d.Abs(), transaction.TypePayable, nil
			}
		}

		if s := cellValue(row, cols.index(p.CreditCol)); s != "" {
			d, err := ParseAmount(s)
			if err != nil {
				return decimal.Zero, "", err
			}

			return d.Abs(), transaction.TypeReceivable, nil
		}

		return decimal.Zero, "", nil
	default:
		s := cellValue(row, cols.index(p.AmountCol))
		if s == "" {
			return decimal.Zero, "", nil
		}

		d, err := ParseAmount(s)
		if err != nil {
			return decimal.Zero, "", err
		}

		if d.IsNegative() {
			return d.Abs(), transaction.TypePayable, nil
		}

		return d, transaction.TypeReceivable, nil
	}
}

func optionalDate(row []string, idx int) (*time.Time, error) {
	s := cellValue(row, idx)
	if s == "" {
		return nil, nil
	}

	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func optionalText(row []string, idx int) *string {
	s := cellValue(row, idx)
	if s == "" {
		return nil
	}

	return &s
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
