package transaction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// date is a calendar day carried as "YYYY-MM-DD" in JSON.
type date time.Time

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a YYYY-MM-DD string", transaction.ErrValidation)
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", transaction.ErrValidation, s)
	}

	*d = date(t)

	return nil
}

func (d date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(time.DateOnly))
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}

	return new(time.Time(*d))
}

func fromTime(t *time.Time) *date {
	if t == nil {
		return nil
	}

	return new(date(*t))
}
