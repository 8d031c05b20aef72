// Package csvimport reads header-keyed CSV files for bulk imports.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data record keyed by lower-cased header name
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of a column, empty when absent
func (r Row) Get(column string) string {
	return r.Fields[column]
}

func (r Row) empty() bool {
	for _, v := range r.Fields {
		if v != "" {
			return false
		}
	}
	return true
}

// Reader reads a CSV file with a header row
type Reader struct {
	delimiter rune
	required  []string
	maxRows   int
}

// Option configures a Reader
type Option func(*Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(r *Reader) { r.delimiter = d }
}

// WithRequiredColumns rejects files whose header lacks any of the columns
func WithRequiredColumns(columns ...string) Option {
	return func(r *Reader) { r.required = columns }
}

// WithMaxRows caps the number of data rows
func WithMaxRows(n int) Option {
	return func(r *Reader) { r.maxRows = n }
}

// NewReader creates a Reader
func NewReader(opts ...Option) *Reader {
	r := &Reader{delimiter: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadAll parses src. A UTF-8 byte order mark is stripped, header names are
// trimmed and lower-cased, and blank lines are skipped. Line numbers count
// the header as line 1.
func (r *Reader) ReadAll(src io.Reader) ([]Row, error) {
	buf := bufio.NewReader(src)
	if err := skipBOM(buf); err != nil {
		return nil, err
	}

	cr := csv.NewReader(buf)
	cr.Comma = r.delimiter
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, &LineError{Line: 1, Err: err}
	}
	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
		present[columns[i]] = true
	}
	var missing []string
	for _, col := range r.required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &LineError{Line: perr.StartLine, Err: perr.Err}
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if !utf8.ValidString(strings.Join(record, "")) {
			return nil, &LineError{Line: line, Err: ErrInvalidEncoding}
		}

		row := Row{Line: line, Fields: make(map[string]string, len(columns))}
		for i, col := range columns {
			if i < len(record) {
				row.Fields[col] = strings.TrimSpace(record[i])
			} else {
				row.Fields[col] = ""
			}
		}
		if row.empty() {
			continue
		}
		rows = append(rows, row)
		if r.maxRows > 0 && len(rows) > r.maxRows {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyRows, r.maxRows)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func skipBOM(buf *bufio.Reader) error {
	head, err := buf.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return ErrEmptyFile
	}
	if string(head) == string(utf8BOM) {
		_, _ = buf.Discard(len(utf8BOM))
	}
	return nil
}
