package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes caps JSON and form bodies.
const maxBodyBytes = 1 << 20

// decodeTransaction reads a JSON transaction body and converts it to a draft.
func decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Draft, error) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.Draft{}, err
	}
	return req.draft()
}

// decodeJSON decodes a single JSON value. Validation errors raised by field
// decoders, such as an invalid amount, are returned as is; anything else
// becomes core.ErrMalformedBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if core.IsValidation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", core.ErrMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON value", core.ErrMalformedBody)
	}
	return nil
}

// formRequest converts the dashboard form into the same request the JSON
// API accepts.
func formRequest(form url.Values) (transactionRequest, error) {
	req := transactionRequest{
		Category:    form.Get("category"),
		Date:        form.Get("date"),
		Description: form.Get("description"),
		Type:        form.Get("type"),
		Operation:   form.Get("operation"),
	}
	cents, err := core.ParseDecimalToCents(form.Get("amount"))
	if err != nil {
		return req, err
	}
	req.Amount = &core.Money{Cents: cents}
	return req, nil
}

// Filter narrows the dashboard transaction list.
type Filter struct {
	Type     string
	Category string
}

// ParseFilter reads the type and category query parameters. An unknown type
// is ignored rather than rejected.
func ParseFilter(query url.Values) Filter {
	f := Filter{Category: sanitizeInput(query.Get("category"))}
	if kind, err := core.ParseKind(query.Get("type")); err == nil {
		f.Type = string(kind)
	}
	return f
}

// Match reports whether t passes the filter.
func (f Filter) Match(t core.Transaction) bool {
	if f.Type != "" && string(t.Kind()) != f.Type {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category(), f.Category) {
		return false
	}
	return true
}

// sanitizeInput removes control characters other than tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
