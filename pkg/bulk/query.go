package bulk

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
)

// TempTableQuery - запрос к заполненной временной таблице
// Where возвращает новый запрос; исходный не меняется
type TempTableQuery[T any] struct {
	table    *TempTable
	inserted int64
	where    []string
	args     []any
	orderBy  string
}

func newTempTableQuery[T any](table *TempTable, inserted int64) *TempTableQuery[T] {
	return &TempTableQuery[T]{table: table, inserted: inserted}
}

// Table возвращает временную таблицу
func (q *TempTableQuery[T]) Table() *TempTable {
	return q.table
}

// Name возвращает имя временной таблицы
func (q *TempTableQuery[T]) Name() string {
	return q.table.Name()
}

// RowsInserted - количество строк, загруженных в таблицу
func (q *TempTableQuery[T]) RowsInserted() int64 {
	return q.inserted
}

// Where добавляет условие (через AND). Параметры - в синтаксисе драйвера
func (q *TempTableQuery[T]) Where(condition string, args ...any) *TempTableQuery[T] {
	c := *q
	c.where = append(append([]string(nil), q.where...), condition)
	c.args = append(append([]any(nil), q.args...), args...)
	return &c
}

// OrderBy задает сортировку: фрагмент SQL после ORDER BY
func (q *TempTableQuery[T]) OrderBy(clause string) *TempTableQuery[T] {
	c := *q
	c.orderBy = clause
	return &c
}

// SQL возвращает текст SELECT по колонкам таблицы
func (q *TempTableQuery[T]) SQL() string {
	adapter := q.table.session.adapter()
	names := make([]string, len(q.table.properties))
	for i, p := range q.table.properties {
		names[i] = adapter.QuoteIdentifier(p.Name)
	}
	return q.build("SELECT " + strings.Join(names, ", "))
}

func (q *TempTableQuery[T]) build(selectClause string) string {
	var b strings.Builder
	b.WriteString(selectClause)
	b.WriteString(" FROM ")
	b.WriteString(q.table.QualifiedName())
	if len(q.where) > 0 {
		b.WriteString(" WHERE (")
		b.WriteString(strings.Join(q.where, ") AND ("))
		b.WriteString(")")
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
	}
	return b.String()
}

// Rows выполняет запрос и отдает сущности по одной
// Ошибка завершает последовательность
func (q *TempTableQuery[T]) Rows(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := q.table.session.QueryContext(ctx, q.SQL(), q.args...)
		if err != nil {
			yield(zero, fmt.Errorf("failed to query %s: %w", q.table.ref, err))
			return
		}
		defer rows.Close()

		et := q.table.entityType
		props := q.table.properties
		wrapper, _ := q.table.session.adapter().(adapters.ScanTargetWrapper)
		for rows.Next() {
			var item T
			dests, err := et.ScanTargets(&item, props)
			if err != nil {
				yield(zero, err)
				return
			}
			if wrapper != nil {
				for i, p := range props {
					dests[i] = wrapper.WrapScanTarget(p.FieldDef, dests[i])
				}
			}
			if err := rows.Scan(dests...); err != nil {
				yield(zero, fmt.Errorf("failed to scan %s: %w", q.table.ref, err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("failed to read %s: %w", q.table.ref, err))
		}
	}
}

// All выполняет запрос и возвращает все сущности
func (q *TempTableQuery[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	for item, err := range q.Rows(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Count возвращает количество строк, удовлетворяющих запросу
func (q *TempTableQuery[T]) Count(ctx context.Context) (int64, error) {
	if q.table.session.Closed() {
		return 0, fmt.Errorf("failed to count %s: %w", q.table.ref, ErrSessionClosed)
	}
	c := *q
	c.orderBy = ""
	var n int64
	if err := q.table.session.QueryRowContext(ctx, c.build("SELECT COUNT(*)"), q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", q.table.ref, err)
	}
	return n, nil
}

// Close удаляет таблицу, если она создана с DropOnClose
func (q *TempTableQuery[T]) Close(ctx context.Context) error {
	if !q.table.dropOnClose {
		return nil
	}
	return q.table.Drop(ctx)
}
