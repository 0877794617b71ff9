package http

import (
	"fmt"
	"html/template"
	"strconv"

	"fintrack/internal/core"
)

var templateFuncs = template.FuncMap{
	"euros": func(m core.Money) string { return formatEuros(m.Cents) },
}

// formatEuros formats cents as a Euro currency string (e.g., "€12,34").
func formatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-€" + s
	}
	return "€" + s
}
