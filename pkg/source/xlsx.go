package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	f      *excelize.File
	rows   *excelize.Rows
	header []string
}

// OpenXLSX streams rows of a worksheet; empty sheet means the first one.
func OpenXLSX(path, sheet string) (Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	x := &xlsxReader{f: f, rows: rows}
	header, err := x.Next()
	if err != nil {
		x.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("sheet %q is empty", sheet)
		}
		return nil, err
	}
	x.header = header
	return x, nil
}

func (x *xlsxReader) Header() []string {
	return x.header
}

func (x *xlsxReader) Next() ([]string, error) {
	for x.rows.Next() {
		cols, err := x.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if isBlank(cols) {
			continue
		}
		return cols, nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return nil, io.EOF
}

func (x *xlsxReader) Close() error {
	err := x.rows.Close()
	if cerr := x.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
