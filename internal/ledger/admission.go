package ledger

import (
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// ErrOverBudget rejects a transaction larger than the remaining monthly budget.
var ErrOverBudget = errors.New("transaction amount exceeds remaining monthly budget")

// Admit runs the advisory budget check done before submitting a draft.
// Income is always admitted, and so are savings withdrawals since they
// return money that was already saved. The store does not enforce this.
func Admit(s Summary, d core.Draft) error {
	switch e := d.Entry.(type) {
	case core.IncomeEntry:
		return nil
	case core.SavingEntry:
		if e.Operation == core.OpDeduct {
			return nil
		}
	}
	if d.Amount.Cents > s.Remaining.Cents {
		return fmt.Errorf("%w: amount %s, remaining %s", ErrOverBudget, d.Amount.Decimal(), s.Remaining.Decimal())
	}
	return nil
}
