// Package ledger extracts dated cash flows from broker ledger exports.
// It is a producer for the core: parsing never reaches the solver's
// numerics, it only builds a cashflow.Series with the fixed sign convention.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ankitjgd/xirrcalc/internal/modules/cashflow"
)

const dateLayout = "2006-01-02"

// Required Zerodha ledger columns, matched by header name so column order
// does not matter.
var requiredColumns = []string{"particulars", "posting_date", "credit", "debit"}

// Parser reads Zerodha-style ledger CSV exports.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a ledger CSV parser.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log.With().Str("component", "ledger_parser").Logger()}
}

// ParseZerodhaCSV extracts the fund movements that constitute the account's
// external cash flows:
//
//   - "Funds added" rows become negative amounts (money committed)
//   - "Payout" and quarterly settlement rows become positive amounts
//
// Trading activity, charges and other internal rows are ignored. Rows with a
// missing date or a non-positive amount are skipped.
func (p *Parser) ParseZerodhaCSV(r io.Reader) (cashflow.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var series cashflow.Series
	added, paidOut := 0, 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		particulars := field(row, cols["particulars"])
		date, ok := parseDate(field(row, cols["posting_date"]))
		if particulars == "" || !ok {
			continue
		}

		switch {
		case strings.Contains(particulars, "Funds added"):
			if amount, ok := parseAmount(field(row, cols["credit"])); ok {
				series = append(series, cashflow.CashFlow{Date: date, Amount: -amount})
				added++
			}
		case strings.Contains(particulars, "Payout"),
			strings.Contains(strings.ToLower(particulars), "quarterly settlement"):
			if amount, ok := parseAmount(field(row, cols["debit"])); ok {
				series = append(series, cashflow.CashFlow{Date: date, Amount: amount})
				paidOut++
			}
		}
	}

	p.log.Info().
		Int("fund_additions", added).
		Int("payouts", paidOut).
		Msg("Parsed ledger CSV")

	if added == 0 {
		return nil, fmt.Errorf("no fund additions found in the ledger")
	}

	return series, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseAmount accepts comma-grouped figures ("1,00,000.50") and rejects
// non-positive values.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
