// Package source reads tabular files (CSV, TSV, XLSX) as typed entity records.
//
// The first row is the header. A header cell is either a plain column name
// or "name (TYPE)" with an optional " *" suffix marking a key column:
//
//	id (INTEGER) * | name (TEXT(100)) | amount (DECIMAL(18,2)) | note
//
// Columns without a type are nullable TEXT.
package source

import (
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// Reader is a stream of raw rows.
type Reader interface {
	// Header returns the header row.
	Header() []string

	// Next returns the next data row, io.EOF after the last one.
	Next() ([]string, error)

	Close() error
}

// Open opens a file by extension: .csv, .tsv or .xlsx.
// sheet is used for XLSX only; empty means the first sheet.
func Open(path, sheet string) (Reader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return OpenCSVFile(path, ',')
	case ".tsv", ".tab":
		return OpenCSVFile(path, '\t')
	case ".xlsx", ".xlsm":
		return OpenXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// ParseHeader parses "field_name (TYPE)" or "field_name (TYPE) *".
func ParseHeader(header string) (schema.FieldDef, error) {
	header = strings.TrimSpace(header)
	field := schema.FieldDef{Name: header, Type: schema.TypeText, Nullable: true}

	if strings.HasSuffix(header, "*") {
		field.Key = true
		header = strings.TrimSpace(strings.TrimSuffix(header, "*"))
		field.Name = header
	}

	// "total (usd)" with an unknown type stays a column name
	if open := strings.Index(header, "("); open > 0 && strings.HasSuffix(header, ")") {
		if parsed, err := schema.ParseDataType(header[open+1 : len(header)-1]); err == nil {
			parsed.Name = strings.TrimSpace(header[:open])
			parsed.Key = field.Key
			parsed.Nullable = !field.Key
			field = parsed
		}
	}

	if field.Name == "" {
		return schema.FieldDef{}, fmt.Errorf("empty column name in header %q", header)
	}
	return field, nil
}

// Entity builds a dynamic entity type from a header row.
// keys marks additional key columns by name.
func Entity(name string, header []string, keys ...string) (*entity.EntityType, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	b := schema.NewBuilder()
	names := make(map[string]string, len(header))
	for _, h := range header {
		col, err := ParseHeader(h)
		if err != nil {
			return nil, err
		}
		b.AddField(col)
		names[strings.ToLower(col.Name)] = col.Name
	}

	for _, k := range keys {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		col, ok := names[strings.ToLower(k)]
		if !ok {
			return nil, fmt.Errorf("key column %q is not in the header", k)
		}
		b.Key(col)
	}

	return entity.Define(name, b.Build()...)
}

// Records converts raw rows into entity records.
type Records struct {
	et   *entity.EntityType
	r    Reader
	conv *schema.Converter
	row  int
	err  error
}

// NewRecords returns a converter of rows read from r.
func NewRecords(et *entity.EntityType, r Reader) *Records {
	return &Records{et: et, r: r, conv: schema.NewConverter()}
}

// All yields records until the reader is exhausted or a row fails.
// The failure is reported by Err after the sequence ends.
func (rs *Records) All() iter.Seq[entity.Record] {
	return func(yield func(entity.Record) bool) {
		props := rs.et.Properties()
		for {
			raw, err := rs.r.Next()
			if err == io.EOF {
				return
			}
			rs.row++
			if err != nil {
				rs.err = fmt.Errorf("row %d: %w", rs.row, err)
				return
			}
			if len(raw) > len(props) {
				rs.err = fmt.Errorf("row %d has %d cells, header has %d", rs.row, len(raw), len(props))
				return
			}

			rec := rs.et.NewRecord()
			for i, p := range props {
				cell := ""
				if i < len(raw) {
					cell = raw[i]
				}
				v, err := rs.conv.ParseValue(cell, p.FieldDef)
				if err != nil {
					rs.err = fmt.Errorf("row %d: %w", rs.row, err)
					return
				}
				rec[p.Ordinal()] = v
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Rows returns the number of data rows read so far.
func (rs *Records) Rows() int {
	return rs.row
}

// Err returns the error that stopped All.
func (rs *Records) Err() error {
	return rs.err
}
