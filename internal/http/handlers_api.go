package http

import (
	"errors"
	"net/http"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// handleListTransactions returns every transaction in the listing window,
// newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.List(r.Context(), s.window())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toJSONList(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toJSON(t))
}

// handleCreateTransaction stores a new record. The budget check is advisory
// and is not applied here.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	d, err := decodeTransaction(w, r)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := s.store.Create(r.Context(), d)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toJSON(t))
}

// handleUpdateTransaction replaces every mutable field of an existing record.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	d, err := decodeTransaction(w, r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	t, err := s.store.Update(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageJSON{Message: msgDeleted})
}

// handleStats returns monthly sums grouped by type and category over the
// listing window.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.AggregateMonthly(r.Context(), s.window())
	if err != nil {
		writeError(w, r, log.OpStats, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStatsJSON(totals))
}

// summary reconciles the listing window as of now.
func (s *Server) summary(r *http.Request) (ledger.Summary, error) {
	txs, err := s.store.List(r.Context(), s.window())
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Reconcile(txs, s.now(), s.accounts), nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.summary(r)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSummaryJSON(sum, s.now()))
}

// handleCheck runs the advisory budget check on a draft without storing it.
// A rejected draft is still a 200: the verdict is the payload.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	d, err := decodeTransaction(w, r)
	if err == nil {
		err = d.Validate(s.accounts)
	}
	if err != nil {
		writeError(w, r, log.OpAdmit, err)
		return
	}

	sum, err := s.summary(r)
	if err != nil {
		writeError(w, r, log.OpAdmit, err)
		return
	}

	verdict := checkJSON{Admitted: true, Remaining: sum.Remaining}
	if err := ledger.Admit(sum, d); err != nil {
		if !errors.Is(err, ledger.ErrOverBudget) {
			writeError(w, r, log.OpAdmit, err)
			return
		}
		verdict.Admitted = false
		verdict.Message = err.Error()
	}
	writeJSON(w, r, http.StatusOK, verdict)
}
