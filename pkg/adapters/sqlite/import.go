package sqlite

import (
	"context"
	"fmt"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// BuildCreateTempTable генерирует DDL временной таблицы
// Не уникальное имя защищается IF NOT EXISTS и, опционально, очисткой
func (a *Adapter) BuildCreateTempTable(t adapters.TableRef, columns []schema.FieldDef, opts adapters.TempTableOptions) ([]string, error) {
	defs, err := base.ColumnDefinitions(a.Dialect, a, columns, nil)
	if err != nil {
		return nil, err
	}

	guard := ""
	if !opts.Unique {
		guard = "IF NOT EXISTS "
	}

	stmts := []string{
		fmt.Sprintf("CREATE TEMP TABLE %s%s %s", guard, a.QuoteIdentifier(t.Name), base.CreateTableBody(defs)),
	}
	if !opts.Unique && opts.TruncateIfExists {
		stmts = append(stmts, a.BuildTruncateTable(adapters.TableRef{Name: t.Name, Temp: true}))
	}
	return stmts, nil
}

// BuildTruncateTable - в SQLite нет TRUNCATE, используется DELETE без WHERE
// (SQLite оптимизирует его в truncate)
func (a *Adapter) BuildTruncateTable(t adapters.TableRef) string {
	return "DELETE FROM " + a.QualifiedName(t)
}

// BuildDropTable генерирует удаление таблицы
func (a *Adapter) BuildDropTable(t adapters.TableRef) string {
	return "DROP TABLE IF EXISTS " + a.QualifiedName(t)
}

// CreatePrimaryKey - SQLite не умеет ALTER TABLE ADD PRIMARY KEY,
// ключ эмулируется уникальным индексом PK_<table>
func (a *Adapter) CreatePrimaryKey(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []string, checkForExistence bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("no primary key columns for %s", t)
	}

	pkName := adapters.PrimaryKeyName(t.Name)

	var count int
	err := s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_index_list(?) WHERE origin = 'pk' OR name = ?",
		t.Name, pkName).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check primary key of %s: %w", t, err)
	}
	if count > 0 {
		if checkForExistence {
			return nil
		}
		return fmt.Errorf("%w: %s", adapters.ErrPrimaryKeyExists, t)
	}

	indexName := a.QuoteIdentifier(pkName)
	switch {
	case t.Temp:
		indexName = "temp." + indexName
	case t.Schema != "":
		indexName = a.QuoteIdentifier(t.Schema) + "." + indexName
	}

	query := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)",
		indexName, a.QuoteIdentifier(t.Name), a.QuoteList(columns))
	if _, err := s.ExecContext(ctx, query); err != nil {
		if isAlreadyExists(err) {
			if checkForExistence {
				return nil
			}
			return fmt.Errorf("%w: %s: %v", adapters.ErrPrimaryKeyExists, t, err)
		}
		return fmt.Errorf("failed to create primary key on %s: %w", t, err)
	}
	return nil
}

// BulkCopy вставляет строки подготовленным INSERT внутри SAVEPOINT
// Работает как в транзакции сессии, так и без нее
func (a *Adapter) BulkCopy(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []schema.FieldDef, src adapters.RowSource, opts adapters.BulkCopyOptions) (int64, error) {
	if _, err := s.ExecContext(ctx, "SAVEPOINT bulk_copy"); err != nil {
		return 0, fmt.Errorf("failed to start savepoint: %w", err)
	}

	count, err := base.InsertRows(ctx, s, a.Dialect, a.QualifiedName(t), columns,
		base.ConvertSource(src, columns, base.ToDriverValue), base.QuestionMark)
	if err != nil {
		// Откат к savepoint; RELEASE завершает его в любом случае
		_, _ = s.ExecContext(context.WithoutCancel(ctx), "ROLLBACK TO bulk_copy")
		_, _ = s.ExecContext(context.WithoutCancel(ctx), "RELEASE bulk_copy")
		return 0, fmt.Errorf("bulk copy into %s failed: %w", t, err)
	}

	if _, err := s.ExecContext(ctx, "RELEASE bulk_copy"); err != nil {
		return 0, fmt.Errorf("failed to release savepoint: %w", err)
	}
	return count, nil
}
