// Package intake bulk-creates campaigns from the spreadsheets shelters send
// in, one row per case.
package intake

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
)

var ErrNoHeader = errors.New("no header row with title, goal, organization and subject columns")

// Row is one parsed campaign with its 1-based line in the source file.
type Row struct {
	Line   int
	Params campaign.CreateParams
}

// RowError reports a data row that could not be parsed.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Header aliases, matched case-insensitively after trimming.
var columnAliases = map[string][]string{
	colTitle:   {"title", "campaign", "название", "кампания"},
	colGoal:    {"goal", "goal_amount", "amount", "цель", "сумма"},
	colOrg:     {"organization", "organization_id", "org", "shelter", "организация", "приют"},
	colSubject: {"subject", "subject_id", "pet", "pet_id", "case", "питомец", "кличка"},
}

const (
	colTitle   = "title"
	colGoal    = "goal"
	colOrg     = "organization"
	colSubject = "subject"
)

type columns map[string]int

// Parse reads a CSV export. Both ';' and ',' delimiters are accepted, and the
// header may be preceded by free-form preamble rows. Rows that fail to parse
// are returned as RowErrors without aborting the rest of the file.
func Parse(r io.Reader) ([]Row, []RowError, error) {
	utf8r, _, err := utf8Reader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("detecting encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}

	var (
		records   []record
		cols      columns
		headerIdx int
		found     bool
		readErr   error
	)

	for _, comma := range delimiters(raw) {
		records, err = readRecords(raw, comma)
		if err != nil {
			readErr = err
			continue
		}

		if cols, headerIdx, found = findHeader(records); found {
			break
		}
	}

	if !found {
		if readErr != nil {
			return nil, nil, fmt.Errorf("reading csv: %w", readErr)
		}

		return nil, nil, ErrNoHeader
	}

	var (
		rows    []Row
		rowErrs []RowError
	)

	for _, rec := range records[headerIdx+1:] {
		if blank(rec.fields) {
			continue
		}

		params, err := parseRecord(cols, rec.fields)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: rec.line, Err: err})
			continue
		}

		rows = append(rows, Row{Line: rec.line, Params: params})
	}

	return rows, rowErrs, nil
}

// record is one CSV record and the source line it starts on. encoding/csv
// skips empty lines, so record indexes do not map to lines.
type record struct {
	line   int
	fields []string
}

func readRecords(raw []byte, comma rune) ([]record, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []record

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
}

// sniffLines bounds how far into the file delimiter counting looks. Preamble
// rows rarely run longer than a few lines.
const sniffLines = 10

// delimiters returns ';' and ',' ordered by how often each appears in the
// first lines. Decimal commas make ',' the wrong guess for most regional
// exports, so ';' wins ties. Parse falls back to the other delimiter when the
// first one yields no header.
func delimiters(raw []byte) []rune {
	var semicolons, commas int

	for i, line := range bytes.SplitN(raw, []byte("\n"), sniffLines+1) {
		if i == sniffLines {
			break
		}

		semicolons += bytes.Count(line, []byte(";"))
		commas += bytes.Count(line, []byte(","))
	}

	if commas > semicolons {
		return []rune{',', ';'}
	}

	return []rune{';', ','}
}

func findHeader(records []record) (columns, int, bool) {
	for idx, rec := range records {
		cols := make(columns)

		for i, cell := range rec.fields {
			name := strings.ToLower(strings.TrimSpace(cell))
			for col, aliases := range columnAliases {
				for _, alias := range aliases {
					if name == alias {
						if _, seen := cols[col]; !seen {
							cols[col] = i
						}
					}
				}
			}
		}

		if len(cols) == len(columnAliases) {
			return cols, idx, true
		}
	}

	return nil, 0, false
}

func parseRecord(cols columns, rec []string) (campaign.CreateParams, error) {
	params := campaign.CreateParams{
		Title:          cell(rec, cols[colTitle]),
		OrganizationID: cell(rec, cols[colOrg]),
		SubjectID:      cell(rec, cols[colSubject]),
	}

	if params.Title == "" {
		return params, errors.New("missing title")
	}

	goal, err := parseAmount(cell(rec, cols[colGoal]))
	if err != nil {
		return params, fmt.Errorf("goal: %w", err)
	}

	params.GoalAmount = goal

	return params, nil
}

// parseAmount accepts "250000", "250 000,50", "250.000,50" and "250,000.50".
// When both separators appear the last one is the decimal point; a lone
// comma followed by exactly three digits is read as grouping.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "").Replace(s)
	if clean == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") == 1 && len(clean)-lastComma-1 != 3 {
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	return d, nil
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}

	return strings.TrimSpace(rec[idx])
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
