package bulk

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// EntityReader представляет последовательность сущностей как курсор строк
//
// Next забирает из последовательности ровно одну сущность, поэтому
// коллекция никогда не материализуется целиком. Значения колонок
// вычисляются лениво при первом обращении к строке.
type EntityReader[T any] struct {
	et    *entity.EntityType
	props []*entity.Property

	next func() (T, bool)
	stop func()

	current T
	hasRow  bool
	values  []any
	ready   bool
	rows    int64
	err     error
	closed  bool
}

// Compile-time check
var _ adapters.RowSource = (*EntityReader[struct{}])(nil)

// NewEntityReader создает курсор по items для колонок props
func NewEntityReader[T any](et *entity.EntityType, props []*entity.Property, items iter.Seq[T]) *EntityReader[T] {
	next, stop := iter.Pull(items)
	return &EntityReader[T]{
		et:     et,
		props:  props,
		next:   next,
		stop:   stop,
		values: make([]any, 0, len(props)),
	}
}

// Next переходит к следующей сущности
func (r *EntityReader[T]) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	item, ok := r.next()
	if !ok {
		r.hasRow = false
		return false
	}
	r.current = item
	r.hasRow = true
	r.ready = false
	r.rows++
	return true
}

// Values возвращает значения текущей строки в порядке колонок
// Срез переиспользуется между строками
func (r *EntityReader[T]) Values() ([]any, error) {
	if !r.hasRow {
		return nil, errors.New("bulk: Values called without a current row")
	}
	if !r.ready {
		vals, err := r.et.AppendValues(r.values[:0], r.current, r.props)
		if err != nil {
			r.err = fmt.Errorf("row %d: %w", r.rows, err)
			return nil, r.err
		}
		r.values = vals
		r.ready = true
	}
	return r.values, nil
}

// GetValue возвращает значение колонки i текущей строки
func (r *EntityReader[T]) GetValue(i int) (any, error) {
	if i < 0 || i >= len(r.props) {
		return nil, fmt.Errorf("bulk: column index %d out of range [0,%d)", i, len(r.props))
	}
	vals, err := r.Values()
	if err != nil {
		return nil, err
	}
	return vals[i], nil
}

// FieldCount возвращает количество колонок
func (r *EntityReader[T]) FieldCount() int {
	return len(r.props)
}

// ColumnName возвращает имя колонки i
func (r *EntityReader[T]) ColumnName(i int) string {
	return r.props[i].Name
}

// Current возвращает текущую сущность
func (r *EntityReader[T]) Current() T {
	return r.current
}

// RowsRead возвращает количество прочитанных сущностей
func (r *EntityReader[T]) RowsRead() int64 {
	return r.rows
}

// Err возвращает ошибку, остановившую чтение
func (r *EntityReader[T]) Err() error {
	return r.err
}

// Close останавливает исходную последовательность
func (r *EntityReader[T]) Close() error {
	if !r.closed {
		r.closed = true
		r.hasRow = false
		r.stop()
	}
	return nil
}
