package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

type (
	dashboardData struct {
		MonthLabel string
		Error      string
		Notice     string

		Summary      ledger.Summary
		Usage        float64
		UsageWidth   int
		Distribution []distributionRow
		Months       []monthRow

		Accounts     core.Accounts
		Form         formValues
		Filter       Filter
		Categories   []string
		Transactions []transactionRow
	}

	distributionRow struct {
		Label  string
		Amount string
		Width  int
	}

	monthRow struct {
		Label   string
		Income  core.Money
		Expense core.Money
		Saving  core.Money
	}

	transactionRow struct {
		ID          string
		Date        string
		Kind        string
		Operation   string
		Category    string
		Description string
		Amount      core.Money
	}

	// formValues echoes the submitted form back after a rejected submission.
	formValues struct {
		Type        string
		Amount      string
		Date        string
		Category    string
		Operation   string
		Description string
	}
)

var notices = map[string]string{
	"saved":   "Transaction saved.",
	"deleted": "Transaction deleted.",
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter := ParseFilter(r.URL.Query())
	data, err := s.loadDashboard(r.Context(), filter)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard load failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		data.Error = "Could not load your transactions. Please try again."
		s.render(w, r, http.StatusInternalServerError, data)
		return
	}
	data.Notice = notices[r.URL.Query().Get("notice")]
	s.render(w, r, http.StatusOK, data)
}

// handleFormCreate stores a transaction submitted from the dashboard after
// the budget check admits it.
func (s *Server) handleFormCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderFailure(w, r, http.StatusBadRequest, "Invalid form submission.", formValues{})
		return
	}
	form := readForm(r.PostForm)

	req, err := formRequest(r.PostForm)
	var d core.Draft
	if err == nil {
		d, err = req.draft()
	}
	if err == nil {
		err = d.Validate(s.accounts)
	}
	if err != nil {
		status, msg := statusFor(err)
		s.renderFailure(w, r, status, msg, form)
		return
	}

	sum, err := s.summary(r)
	if err != nil {
		s.failWith(w, r, log.OpAdmit, err, form)
		return
	}
	if err := ledger.Admit(sum, d); err != nil {
		if errors.Is(err, ledger.ErrOverBudget) {
			log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction rejected by budget check",
				log.FieldAmountCents, d.Amount.Cents,
				"remaining_cents", sum.Remaining.Cents)
			s.renderFailure(w, r, http.StatusUnprocessableEntity,
				fmt.Sprintf("Over budget: %s exceeds the remaining %s this month.", formatEuros(d.Amount.Cents), formatEuros(sum.Remaining.Cents)),
				form)
			return
		}
		s.failWith(w, r, log.OpAdmit, err, form)
		return
	}

	if _, err := s.store.Create(r.Context(), d); err != nil {
		s.failWith(w, r, log.OpCreate, err, form)
		return
	}
	http.Redirect(w, r, "/?notice=saved", http.StatusSeeOther)
}

func (s *Server) handleFormDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.failWith(w, r, log.OpDelete, err, formValues{})
		return
	}
	http.Redirect(w, r, "/?notice=deleted", http.StatusSeeOther)
}

// failWith classifies err and re-renders the dashboard with the message.
func (s *Server) failWith(w http.ResponseWriter, r *http.Request, op string, err error, form formValues) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard action failed",
			log.FieldOperation, op,
			log.FieldError, err)
		msg = "Something went wrong while saving. Please try again."
	}
	s.renderFailure(w, r, status, msg, form)
}

// renderFailure shows msg above a freshly loaded dashboard.
func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, status int, msg string, form formValues) {
	data, err := s.loadDashboard(r.Context(), Filter{})
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard load failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
	}
	data.Error = msg
	if form != (formValues{}) {
		data.Form = form
	}
	s.render(w, r, status, data)
}

// loadDashboard reads the listing and the monthly stats concurrently. The
// returned data is always renderable, even alongside an error.
func (s *Server) loadDashboard(ctx context.Context, filter Filter) (dashboardData, error) {
	now := s.now()
	since := s.window()
	data := dashboardData{
		MonthLabel: now.Format("January 2006"),
		Accounts:   s.accounts,
		Filter:     filter,
		Form:       formValues{Type: string(core.KindExpense), Date: core.DateOf(now).String()},
		Summary:    ledger.Reconcile(nil, now, s.accounts),
	}

	var (
		txs    []core.Transaction
		totals []core.MonthlyTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.store.List(gctx, since); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if totals, err = s.store.AggregateMonthly(gctx, since); err != nil {
			return fmt.Errorf("aggregate monthly totals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return data, err
	}

	data.Summary = ledger.Reconcile(txs, now, s.accounts)
	data.Usage = data.Summary.Usage()
	data.UsageWidth = min(int(data.Usage+0.5), 100)
	data.Distribution = distributionRows(data.Summary.Distribution)
	data.Months = monthRows(totals)
	data.Categories = categories(txs)
	for _, t := range txs {
		if filter.Match(t) {
			data.Transactions = append(data.Transactions, transactionRow{
				ID:          t.ID,
				Date:        t.Date.String(),
				Kind:        string(t.Kind()),
				Operation:   string(t.Operation()),
				Category:    t.Category(),
				Description: t.Description,
				Amount:      t.Amount,
			})
		}
	}
	return data, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data dashboardData) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldError, err)
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// distributionRows scales each bucket against the largest one.
func distributionRows(buckets []ledger.Bucket) []distributionRow {
	var maxCents int64
	for _, b := range buckets {
		maxCents = max(maxCents, b.Amount.Cents)
	}
	rows := make([]distributionRow, 0, len(buckets))
	for _, b := range buckets {
		width := 0
		if maxCents > 0 && b.Amount.Cents > 0 {
			width = int((b.Amount.Cents*100 + maxCents/2) / maxCents)
			width = min(max(width, 2), 100) // keep tiny values visible
		}
		rows = append(rows, distributionRow{Label: b.Label, Amount: formatEuros(b.Amount.Cents), Width: width})
	}
	return rows
}

// monthRows folds the grouped totals into one row per month, oldest first.
func monthRows(totals []core.MonthlyTotal) []monthRow {
	var rows []monthRow
	index := map[[2]int]int{}
	for _, m := range totals {
		key := [2]int{m.Year, m.Month}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, monthRow{Label: fmt.Sprintf("%04d-%02d", m.Year, m.Month)})
		}
		switch m.Kind {
		case core.KindIncome:
			rows[i].Income = rows[i].Income.Add(m.Total)
		case core.KindExpense:
			rows[i].Expense = rows[i].Expense.Add(m.Total)
		case core.KindSaving:
			rows[i].Saving = rows[i].Saving.Add(m.Total)
		}
	}
	slices.SortStableFunc(rows, func(a, b monthRow) int { return strings.Compare(a.Label, b.Label) })
	return rows
}

func categories(txs []core.Transaction) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range txs {
		if c := t.Category(); !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

func readForm(form url.Values) formValues {
	return formValues{
		Type:        sanitizeInput(form.Get("type")),
		Amount:      sanitizeInput(form.Get("amount")),
		Date:        sanitizeInput(form.Get("date")),
		Category:    sanitizeInput(form.Get("category")),
		Operation:   sanitizeInput(form.Get("operation")),
		Description: sanitizeInput(form.Get("description")),
	}
}
