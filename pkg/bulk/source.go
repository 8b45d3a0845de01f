package bulk

import (
	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
)

// peekSource позволяет узнать, остались ли строки, не отдавая их
type peekSource struct {
	src    adapters.RowSource
	peeked bool
	ok     bool
}

// More сообщает, есть ли еще строки
func (p *peekSource) More() bool {
	if !p.peeked {
		p.ok = p.src.Next()
		p.peeked = true
	}
	return p.ok
}

func (p *peekSource) Next() bool {
	if p.peeked {
		p.peeked = false
		return p.ok
	}
	return p.src.Next()
}

func (p *peekSource) Values() ([]any, error) { return p.src.Values() }
func (p *peekSource) Err() error             { return p.src.Err() }

// batchSource отдает не более limit строк исходного источника
type batchSource struct {
	src   *peekSource
	limit int
	n     int
}

func (b *batchSource) Next() bool {
	if b.limit > 0 && b.n >= b.limit {
		return false
	}
	if !b.src.Next() {
		return false
	}
	b.n++
	return true
}

func (b *batchSource) Values() ([]any, error) { return b.src.Values() }
func (b *batchSource) Err() error             { return b.src.Err() }

// bufferedSource - строки, полностью прочитанные в память
type bufferedSource struct {
	rows [][]any
	pos  int
}

// bufferRows читает src целиком; значения копируются, т.к. источник переиспользует срез
func bufferRows(src adapters.RowSource) (*bufferedSource, error) {
	b := &bufferedSource{pos: -1}
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return nil, err
		}
		row := make([]any, len(vals))
		copy(row, vals)
		b.rows = append(b.rows, row)
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *bufferedSource) Next() bool {
	if b.pos+1 >= len(b.rows) {
		return false
	}
	b.pos++
	return true
}

func (b *bufferedSource) Values() ([]any, error) { return b.rows[b.pos], nil }
func (b *bufferedSource) Err() error             { return nil }
