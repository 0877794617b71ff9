package google

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// Column layout: A id, B date, C type, D category, E operation, F amount, G description.
const lastColumn = "G"

var header = []any{"ID", "Date", "Type", "Category", "Operation", "Amount", "Description"}

func toRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		string(t.Kind()),
		t.Category(),
		string(t.Operation()),
		t.Amount.Decimal(),
		t.Description,
	}
}

// findRow returns the 1-based sheet row whose first cell equals id, or -1.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return -1
}

func parseRow(row []any) (core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < 6 {
		return core.Transaction{}, fmt.Errorf("short row: %d columns", len(cols))
	}
	kind, err := core.ParseKind(cols[2])
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(cols[1])
	if err != nil {
		return core.Transaction{}, err
	}
	entry, err := core.NewEntry(kind, cols[3], core.Operation(cols[4]))
	if err != nil {
		return core.Transaction{}, err
	}
	cents, ok := parseEurosToCents(cols[5])
	if !ok {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	t := core.Transaction{
		ID:     cols[0],
		Amount: core.Money{Cents: cents},
		Date:   date,
		Entry:  entry,
	}
	if len(cols) > 6 {
		t.Description = cols[6]
	}
	return t, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseEurosToCents reads the amount column, which may have been reformatted
// by a spreadsheet user ("€ 1.234,56"). Rounding is the store's.
func parseEurosToCents(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "€"))
	if strings.Contains(s, ".") && strings.Contains(s, ",") {
		// Thousands separator plus decimal comma
		s = strings.ReplaceAll(s, ".", "")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}
