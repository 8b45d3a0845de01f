package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

type csvReader struct {
	r      *csv.Reader
	closer io.Closer
	header []string
}

// OpenCSVFile opens a delimited text file.
func OpenCSVFile(path string, comma rune) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r, err := newCSVReader(f, comma, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewCSVReader reads delimited text from r.
func NewCSVReader(r io.Reader, comma rune) (Reader, error) {
	return newCSVReader(r, comma, nil)
}

func newCSVReader(r io.Reader, comma rune, closer io.Closer) (*csvReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return &csvReader{r: cr, closer: closer, header: header}, nil
}

func (c *csvReader) Header() []string {
	return c.header
}

func (c *csvReader) Next() ([]string, error) {
	for {
		rec, err := c.r.Read()
		if err != nil {
			return nil, err
		}
		// blank lines are skipped
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		return rec, nil
	}
}

func (c *csvReader) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
