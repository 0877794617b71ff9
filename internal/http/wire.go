package http

import (
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// transactionJSON is the flat record clients read and write. Saving records
// carry the account in both category and savingCategory.
type transactionJSON struct {
	ID             string         `json:"_id"`
	Amount         core.Money     `json:"amount"`
	Category       string         `json:"category"`
	Date           string         `json:"date"`
	Description    string         `json:"description"`
	Type           core.Kind      `json:"type"`
	SavingCategory string         `json:"savingCategory,omitempty"`
	Operation      core.Operation `json:"operation,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func toJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Amount:      t.Amount,
		Category:    t.Category(),
		Date:        t.Date.String(),
		Description: t.Description,
		Type:        t.Kind(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if s, ok := t.Saving(); ok {
		out.SavingCategory = s.Account
		out.Operation = s.Operation
	}
	return out
}

func toJSONList(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toJSON(t))
	}
	return out
}

// transactionRequest is the body of create, update and check requests.
// Unknown fields such as _id or createdAt are ignored so clients can send a
// record back as they received it.
type transactionRequest struct {
	Amount         *core.Money `json:"amount"`
	Category       string      `json:"category"`
	Date           string      `json:"date"`
	Description    string      `json:"description"`
	Type           string      `json:"type"`
	SavingCategory string      `json:"savingCategory"`
	Operation      string      `json:"operation"`
}

// draft converts the flat request into a typed draft. Account membership is
// left to the store.
func (req transactionRequest) draft() (core.Draft, error) {
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.Draft{}, err
	}
	if req.Amount == nil {
		return core.Draft{}, core.ErrInvalidAmount
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Draft{}, err
	}

	category := sanitizeInput(req.Category)
	if kind == core.KindSaving {
		account := sanitizeInput(req.SavingCategory)
		switch {
		case category == "":
			category = account
		case account != "" && account != category:
			return core.Draft{}, core.ErrAccountMismatch
		}
	}

	op := core.Operation(strings.ToLower(strings.TrimSpace(req.Operation)))
	entry, err := core.NewEntry(kind, category, op)
	if err != nil {
		return core.Draft{}, err
	}

	return core.Draft{
		Amount:      *req.Amount,
		Date:        date,
		Description: sanitizeInput(req.Description),
		Entry:       entry,
	}, nil
}

// statKey mirrors the grouping key of the monthly stats.
type statKey struct {
	Type     core.Kind `json:"type"`
	Category string    `json:"category"`
	Month    int       `json:"month"`
	Year     int       `json:"year"`
}

type statJSON struct {
	ID    statKey    `json:"_id"`
	Total core.Money `json:"total"`
}

func toStatsJSON(totals []core.MonthlyTotal) []statJSON {
	out := make([]statJSON, 0, len(totals))
	for _, m := range totals {
		out = append(out, statJSON{
			ID:    statKey{Type: m.Kind, Category: m.Category, Month: m.Month, Year: m.Year},
			Total: m.Total,
		})
	}
	return out
}

type balanceJSON struct {
	Account string     `json:"account"`
	Balance core.Money `json:"balance"`
}

type bucketJSON struct {
	Label  string     `json:"label"`
	Type   core.Kind  `json:"type"`
	Amount core.Money `json:"amount"`
}

type summaryJSON struct {
	Month        string        `json:"month"`
	Balances     []balanceJSON `json:"balances"`
	Income       core.Money    `json:"income"`
	Expenses     core.Money    `json:"expenses"`
	Savings      core.Money    `json:"savings"`
	Spent        core.Money    `json:"spent"`
	Remaining    core.Money    `json:"remaining"`
	Usage        float64       `json:"usagePercent"`
	Distribution []bucketJSON  `json:"distribution"`
}

func toSummaryJSON(s ledger.Summary, now time.Time) summaryJSON {
	out := summaryJSON{
		Month:        now.Format("2006-01"),
		Balances:     make([]balanceJSON, 0, len(s.Balances)),
		Income:       s.Income,
		Expenses:     s.Expenses,
		Savings:      s.Savings,
		Spent:        s.Spent(),
		Remaining:    s.Remaining,
		Usage:        s.Usage(),
		Distribution: make([]bucketJSON, 0, len(s.Distribution)),
	}
	for _, b := range s.Balances {
		out.Balances = append(out.Balances, balanceJSON{Account: b.Account, Balance: b.Balance})
	}
	for _, b := range s.Distribution {
		out.Distribution = append(out.Distribution, bucketJSON{Label: b.Label, Type: b.Kind, Amount: b.Amount})
	}
	return out
}

// checkJSON is the verdict of the advisory budget check.
type checkJSON struct {
	Admitted  bool       `json:"admitted"`
	Remaining core.Money `json:"remaining"`
	Message   string     `json:"message,omitempty"`
}
