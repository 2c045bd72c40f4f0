// Package tabula extracts tables from substitution plan PDFs with the tabula
// command line tool and converts its JSON output into schedule tables.
package tabula

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"substitution_bot/internal/domain/schedule"
)

// ExtractionError means the extraction tool failed or produced output that
// does not have the expected structure.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("table extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IsExtractionError checks if an error is an ExtractionError.
func IsExtractionError(err error) bool {
	var extractionErr *ExtractionError
	return errors.As(err, &extractionErr)
}

type jsonTable struct {
	Data []json.RawMessage `json:"data"`
}

type jsonCell struct {
	Top    *float64 `json:"top"`
	Left   *float64 `json:"left"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Text   *string  `json:"text"`
}

// ParseTables decodes tabula's JSON output: a top-level array of tables, each
// carrying a "data" array of rows, each row an array of cell objects.
func ParseTables(data []byte) ([]schedule.Table, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ExtractionError{Reason: "top level is not an array", Err: err}
	}
	if entries == nil {
		return nil, &ExtractionError{Reason: "top level is null"}
	}

	tables := make([]schedule.Table, 0, len(entries))
	for ti, raw := range entries {
		if !isObject(raw) {
			return nil, &ExtractionError{Reason: fmt.Sprintf("entry %d is not an object", ti)}
		}
		var jt jsonTable
		if err := json.Unmarshal(raw, &jt); err != nil {
			return nil, &ExtractionError{Reason: fmt.Sprintf("entry %d", ti), Err: err}
		}
		if jt.Data == nil {
			return nil, &ExtractionError{Reason: fmt.Sprintf("entry %d has no data field", ti)}
		}

		table := make(schedule.Table, 0, len(jt.Data))
		for ri, rawRow := range jt.Data {
			row, err := parseRow(rawRow)
			if err != nil {
				return nil, &ExtractionError{Reason: fmt.Sprintf("entry %d row %d", ti, ri), Err: err}
			}
			table = append(table, row)
		}
		tables = append(tables, table)
	}

	return tables, nil
}

func parseRow(raw json.RawMessage) (schedule.Row, error) {
	var cells []json.RawMessage
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("row is not an array: %w", err)
	}
	if cells == nil {
		return nil, errors.New("row is null")
	}

	row := make(schedule.Row, 0, len(cells))
	for ci, rawCell := range cells {
		if !isObject(rawCell) {
			return nil, fmt.Errorf("cell %d is not an object", ci)
		}
		var c jsonCell
		if err := json.Unmarshal(rawCell, &c); err != nil {
			return nil, fmt.Errorf("cell %d: %w", ci, err)
		}
		if c.Text == nil || c.Top == nil || c.Left == nil || c.Width == nil || c.Height == nil {
			return nil, fmt.Errorf("cell %d is missing a field", ci)
		}
		row = append(row, schedule.Cell{
			Top:    *c.Top,
			Left:   *c.Left,
			Width:  *c.Width,
			Height: *c.Height,
			Text:   *c.Text,
		})
	}
	return row, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
