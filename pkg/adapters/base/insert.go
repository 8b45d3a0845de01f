package base

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// InsertRows вставляет строки источника подготовленным INSERT
// Используется СУБД без собственного протокола массовой загрузки (SQLite)
// placeholder(i) возвращает маркер параметра i (с 1): "?" или "$1"
func InsertRows(
	ctx context.Context,
	s adapters.Session,
	d Dialect,
	table string,
	columns []schema.FieldDef,
	src adapters.RowSource,
	placeholder func(i int) string,
) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns to insert")
	}

	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, d.ColumnList(columns), strings.Join(marks, ", "))

	stmt, err := s.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var count int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return count, fmt.Errorf("failed to read row %d: %w", count+1, err)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return count, fmt.Errorf("failed to insert row %d: %w", count+1, err)
		}
		count++
	}
	if err := src.Err(); err != nil {
		return count, fmt.Errorf("row source failed: %w", err)
	}

	return count, nil
}

// QuestionMark - маркер параметра "?"
func QuestionMark(int) string { return "?" }
