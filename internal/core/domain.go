package core

import (
	"strings"
	"time"
)

const (
	KindExpense Kind = "expense"
	KindSaving  Kind = "saving"
	KindIncome  Kind = "income"

	OpAdd    Operation = "add"
	OpDeduct Operation = "deduct"

	// DefaultIncomeSource labels income records submitted without a category.
	DefaultIncomeSource = "income"

	maxDescriptionLen = 200
)

type (
	Kind      string
	Operation string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is the variant-specific part of a Transaction. The concrete
	// types are ExpenseEntry, SavingEntry and IncomeEntry.
	Entry interface {
		Kind() Kind
		// Label is the category shown to users: the expense category, the
		// saving account or the income source.
		Label() string
		validate(accounts Accounts) error
	}

	ExpenseEntry struct {
		Category string
	}

	// SavingEntry moves money into (OpAdd) or out of (OpDeduct) a savings account.
	SavingEntry struct {
		Account   string
		Operation Operation
	}

	IncomeEntry struct {
		Source string
	}

	// Draft carries the caller-supplied fields of a transaction.
	Draft struct {
		Amount      Money
		Date        Date
		Description string
		Entry       Entry
	}

	Transaction struct {
		ID          string
		Amount      Money
		Date        Date
		Description string
		Entry       Entry
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Accounts is the set of savings accounts a SavingEntry may reference.
	Accounts []string
)

// DefaultAccounts are the savings accounts used when none are configured.
var DefaultAccounts = Accounts{"SIB", "KSFE"}

func (ExpenseEntry) Kind() Kind { return KindExpense }
func (SavingEntry) Kind() Kind  { return KindSaving }
func (IncomeEntry) Kind() Kind  { return KindIncome }

func (e ExpenseEntry) Label() string { return e.Category }
func (e SavingEntry) Label() string  { return e.Account }
func (e IncomeEntry) Label() string  { return e.Source }

func (e ExpenseEntry) validate(Accounts) error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (e SavingEntry) validate(accounts Accounts) error {
	if strings.TrimSpace(e.Account) == "" {
		return ErrEmptyCategory
	}
	if !accounts.Contains(e.Account) {
		return ErrUnknownAccount
	}
	if !e.Operation.Valid() {
		return ErrInvalidOperation
	}
	return nil
}

func (e IncomeEntry) validate(Accounts) error {
	if strings.TrimSpace(e.Source) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// ParseKind maps the wire name of a transaction type.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindExpense, KindSaving, KindIncome:
		return k, nil
	default:
		return "", ErrInvalidType
	}
}

func (o Operation) Valid() bool {
	return o == OpAdd || o == OpDeduct
}

// Contains reports whether name is one of the configured accounts.
func (a Accounts) Contains(name string) bool {
	for _, acc := range a {
		if acc == name {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// InMonth reports whether the date falls in the calendar month of t.
func (d Date) InMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == int(t.Month())
}

// DateLayout is the storage and form representation of a Date.
const DateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// WindowStart is the first date of the listing window covering the last
// months calendar months up to now. Day overflow normalizes like time.AddDate.
func WindowStart(now time.Time, months int) Date {
	return DateOf(now.AddDate(0, -months, 0))
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps only the
// calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t.UTC()), nil
	}
	return Date{}, ErrInvalidDate
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Validate checks required fields and enum membership against the
// configured savings accounts.
func (d Draft) Validate(accounts Accounts) error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if len(d.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if d.Entry == nil {
		return ErrInvalidType
	}
	return d.Entry.validate(accounts)
}

func (t Transaction) Kind() Kind {
	if t.Entry == nil {
		return ""
	}
	return t.Entry.Kind()
}

// Category returns the label of the entry: expense category, saving account
// or income source.
func (t Transaction) Category() string {
	if t.Entry == nil {
		return ""
	}
	return t.Entry.Label()
}

// Saving returns the saving variant when the transaction moves savings.
func (t Transaction) Saving() (SavingEntry, bool) {
	s, ok := t.Entry.(SavingEntry)
	return s, ok
}

// Draft returns the mutable fields of the transaction.
func (t Transaction) Draft() Draft {
	return Draft{
		Amount:      t.Amount,
		Date:        t.Date,
		Description: t.Description,
		Entry:       t.Entry,
	}
}

// NewEntry builds the variant for kind from the flat category/operation pair
// used on the wire and in storage.
func NewEntry(kind Kind, category string, op Operation) (Entry, error) {
	category = strings.TrimSpace(category)
	switch kind {
	case KindExpense:
		if op != "" {
			return nil, ErrUnexpectedOperation
		}
		return ExpenseEntry{Category: category}, nil
	case KindSaving:
		return SavingEntry{Account: category, Operation: op}, nil
	case KindIncome:
		if op != "" {
			return nil, ErrUnexpectedOperation
		}
		if category == "" {
			category = DefaultIncomeSource
		}
		return IncomeEntry{Source: category}, nil
	default:
		return nil, ErrInvalidType
	}
}

// Operation returns the saving operation, empty for other kinds.
func (t Transaction) Operation() Operation {
	if s, ok := t.Saving(); ok {
		return s.Operation
	}
	return ""
}
