// Package ledger derives balances, monthly totals and the remaining budget
// from a flat list of transactions. Every function is pure: the same
// transactions and the same "now" always produce the same result.
package ledger

import (
	"time"

	"fintrack/internal/core"
)

// SavingLabelSuffix distinguishes saving buckets from expense buckets that
// share a name in the category distribution.
const SavingLabelSuffix = " (Saving)"

type (
	AccountBalance struct {
		Account string
		Balance core.Money
	}

	// Balances lists configured accounts first, then any other account seen
	// in the data in first-seen order.
	Balances []AccountBalance

	// Bucket is one slice of the category distribution chart.
	Bucket struct {
		Label  string
		Kind   core.Kind
		Amount core.Money
	}

	Summary struct {
		Balances     Balances
		Income       core.Money
		Expenses     core.Money
		Savings      core.Money
		Remaining    core.Money
		Distribution []Bucket
	}
)

// Reconcile computes every dashboard aggregate in one pass over the set.
func Reconcile(txs []core.Transaction, now time.Time, accounts core.Accounts) Summary {
	s := Summary{
		Balances:     ComputeBalances(txs, accounts),
		Income:       MonthlyIncome(txs, now),
		Expenses:     MonthExpenses(txs, now),
		Savings:      MonthSavings(txs, now),
		Distribution: Distribution(txs),
	}
	s.Remaining = RemainingBudget(s.Income, s.Expenses, s.Savings)
	return s
}

// ComputeBalances adds saving deposits to and subtracts withdrawals from the
// account named on each saving transaction. Balances may go negative.
func ComputeBalances(txs []core.Transaction, accounts core.Accounts) Balances {
	out := make(Balances, 0, len(accounts))
	index := make(map[string]int, len(accounts))
	for _, acc := range accounts {
		if _, ok := index[acc]; ok {
			continue
		}
		index[acc] = len(out)
		out = append(out, AccountBalance{Account: acc})
	}
	for _, t := range txs {
		s, ok := t.Saving()
		if !ok {
			continue
		}
		i, ok := index[s.Account]
		if !ok {
			i = len(out)
			index[s.Account] = i
			out = append(out, AccountBalance{Account: s.Account})
		}
		switch s.Operation {
		case core.OpAdd:
			out[i].Balance = out[i].Balance.Add(t.Amount)
		case core.OpDeduct:
			out[i].Balance = out[i].Balance.Sub(t.Amount)
		}
	}
	return out
}

// Of returns the balance of account, zero when it never appeared.
func (b Balances) Of(account string) core.Money {
	for _, ab := range b {
		if ab.Account == account {
			return ab.Balance
		}
	}
	return core.Money{}
}

// MonthlyIncome returns the amount of the first income transaction dated in
// now's calendar month. Multiple incomes in the same month are not summed.
func MonthlyIncome(txs []core.Transaction, now time.Time) core.Money {
	for _, t := range txs {
		if t.Kind() == core.KindIncome && t.Date.InMonth(now) {
			return t.Amount
		}
	}
	return core.Money{}
}

// MonthExpenses sums expense amounts dated in now's calendar month.
func MonthExpenses(txs []core.Transaction, now time.Time) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Kind() == core.KindExpense && t.Date.InMonth(now) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// MonthSavings sums saving deposits dated in now's calendar month.
// Withdrawals reduce balances but are not spending, so they are excluded.
func MonthSavings(txs []core.Transaction, now time.Time) core.Money {
	var total core.Money
	for _, t := range txs {
		if s, ok := t.Saving(); ok && s.Operation == core.OpAdd && t.Date.InMonth(now) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// RemainingBudget is income minus month-to-date expenses and deposits.
func RemainingBudget(income, expenses, savings core.Money) core.Money {
	return income.Sub(expenses.Add(savings))
}

// Distribution buckets expenses and saving deposits by label, summing the
// amounts and keeping the order in which each label first appears.
func Distribution(txs []core.Transaction) []Bucket {
	var out []Bucket
	index := make(map[string]int)
	for _, t := range txs {
		label := ""
		switch e := t.Entry.(type) {
		case core.ExpenseEntry:
			label = e.Category
		case core.SavingEntry:
			if e.Operation != core.OpAdd {
				continue
			}
			label = e.Account + SavingLabelSuffix
		default:
			continue
		}
		if i, ok := index[label]; ok {
			out[i].Amount = out[i].Amount.Add(t.Amount)
			continue
		}
		index[label] = len(out)
		out = append(out, Bucket{Label: label, Kind: t.Kind(), Amount: t.Amount})
	}
	return out
}

// Spent is the month-to-date total counted against the budget.
func (s Summary) Spent() core.Money {
	return s.Expenses.Add(s.Savings)
}

// Usage is the share of monthly income already spent, in percent. Without
// income any spending counts as 100%.
func (s Summary) Usage() float64 {
	spent := s.Spent()
	if s.Income.Cents <= 0 {
		if spent.Cents > 0 {
			return 100
		}
		return 0
	}
	return float64(spent.Cents) * 100 / float64(s.Income.Cents)
}
