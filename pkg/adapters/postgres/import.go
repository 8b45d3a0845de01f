package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// tempSchema - псевдоним схемы временных таблиц текущей сессии
const tempSchema = "pg_temp"

// BuildCreateTempTable генерирует CREATE TEMP TABLE
// Не уникальное имя защищается IF NOT EXISTS и, опционально, TRUNCATE
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
		stmts = append(stmts, a.BuildTruncateTable(t))
	}
	return stmts, nil
}

// BuildTruncateTable генерирует TRUNCATE TABLE
func (a *Adapter) BuildTruncateTable(t adapters.TableRef) string {
	return "TRUNCATE TABLE " + a.QualifiedName(t)
}

// BuildDropTable генерирует удаление таблицы
func (a *Adapter) BuildDropTable(t adapters.TableRef) string {
	return "DROP TABLE IF EXISTS " + a.QualifiedName(t)
}

// CreatePrimaryKey добавляет первичный ключ через ALTER TABLE
func (a *Adapter) CreatePrimaryKey(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []string, checkForExistence bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("no primary key columns for %s", t)
	}

	var count int
	err := s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pg_constraint WHERE contype = 'p' AND conrelid = to_regclass($1)",
		a.QualifiedName(t)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check primary key of %s: %w", t, err)
	}
	if count > 0 {
		if checkForExistence {
			return nil
		}
		return fmt.Errorf("%w: %s", adapters.ErrPrimaryKeyExists, t)
	}

	pkName := base.ShortenName(adapters.PrimaryKeyName(t.Name), maxIdentifierLength)
	alter := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
		a.QualifiedName(t), a.QuoteIdentifier(pkName), a.QuoteList(columns))

	if _, err := s.ExecContext(ctx, alter); err != nil {
		if isPrimaryKeyExists(err) {
			if checkForExistence {
				return nil
			}
			return fmt.Errorf("%w: %s: %v", adapters.ErrPrimaryKeyExists, t, err)
		}
		return fmt.Errorf("failed to create primary key on %s: %w", t, err)
	}
	return nil
}

// BulkCopy передает строки через COPY FROM STDIN (pgx CopyFrom)
// COPY выполняется на соединении сессии: временная таблица видна только ему
func (a *Adapter) BulkCopy(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []schema.FieldDef, src adapters.RowSource, opts adapters.BulkCopyOptions) (int64, error) {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}

	var count int64
	err := s.Raw(func(driverConn any) error {
		conn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		var err error
		count, err = conn.Conn().CopyFrom(ctx, a.identifier(t), names,
			base.ConvertSource(src, columns, copyValue))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to COPY data into %s: %w", t, err)
	}
	return count, nil
}

// identifier возвращает имя таблицы для CopyFrom
func (a *Adapter) identifier(t adapters.TableRef) pgx.Identifier {
	switch {
	case t.Temp:
		return pgx.Identifier{tempSchema, t.Name}
	case t.Schema != "":
		return pgx.Identifier{t.Schema, t.Name}
	default:
		return pgx.Identifier{t.Name}
	}
}
