package mssql

import (
	"context"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// ========== Table Creation ==========

// BuildCreateTempTable builds CREATE TABLE for a local temp table (#name).
// String columns get COLLATE database_default; otherwise comparing them with
// columns of the user database fails on a tempdb collation conflict.
func (a *Adapter) BuildCreateTempTable(t adapters.TableRef, columns []schema.FieldDef, opts adapters.TempTableOptions) ([]string, error) {
	if !strings.HasPrefix(t.Name, "#") {
		return nil, fmt.Errorf("temp table name must start with '#': %s", t.Name)
	}

	defs, err := base.ColumnDefinitions(a.Dialect, a, columns, collate)
	if err != nil {
		return nil, err
	}

	create := fmt.Sprintf("CREATE TABLE %s %s", a.QualifiedName(t), base.CreateTableBody(defs))
	if opts.Unique {
		return []string{create}, nil
	}

	stmts := []string{
		fmt.Sprintf("IF OBJECT_ID(%s) IS NULL\n%s", a.objectID(t), create),
	}
	if opts.TruncateIfExists {
		stmts = append(stmts, a.BuildTruncateTable(t))
	}
	return stmts, nil
}

// BuildTruncateTable builds TRUNCATE TABLE.
func (a *Adapter) BuildTruncateTable(t adapters.TableRef) string {
	return "TRUNCATE TABLE " + a.QualifiedName(t)
}

// BuildDropTable builds a drop that tolerates a missing table.
func (a *Adapter) BuildDropTable(t adapters.TableRef) string {
	if a.supportsDropIfExists() {
		return "DROP TABLE IF EXISTS " + a.QualifiedName(t)
	}
	return fmt.Sprintf("IF OBJECT_ID(%s) IS NOT NULL DROP TABLE %s", a.objectID(t), a.QualifiedName(t))
}

// objectID returns the name literal for OBJECT_ID().
// Temp tables are looked up in tempdb.
func (a *Adapter) objectID(t adapters.TableRef) string {
	name := a.QualifiedName(t)
	if t.Temp {
		name = "tempdb.." + name
	}
	return "N'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ========== Primary Key ==========

// CreatePrimaryKey adds a clustered primary key.
// Temp table keys are unnamed: constraint names in tempdb are shared by all
// sessions, so the same PK_ name in two sessions conflicts.
func (a *Adapter) CreatePrimaryKey(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []string, checkForExistence bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("no primary key columns for %s", t)
	}

	catalog := "sys.key_constraints"
	if t.Temp {
		catalog = "tempdb.sys.key_constraints"
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE type = 'PK' AND parent_object_id = OBJECT_ID(%s)",
		catalog, a.objectID(t))

	var count int
	if err := s.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return fmt.Errorf("failed to check primary key of %s: %w", t, err)
	}
	if count > 0 {
		if checkForExistence {
			return nil
		}
		return fmt.Errorf("%w: %s", adapters.ErrPrimaryKeyExists, t)
	}

	constraint := ""
	if !t.Temp {
		constraint = "CONSTRAINT " + a.QuoteIdentifier(adapters.PrimaryKeyName(t.Name)) + " "
	}
	alter := fmt.Sprintf("ALTER TABLE %s ADD %sPRIMARY KEY CLUSTERED (%s)",
		a.QualifiedName(t), constraint, a.QuoteList(columns))

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

// ========== Bulk Copy ==========

// BulkCopy streams rows through TDS bulk load (INSERT BULK).
// The statement is prepared on the session connection, so it sees temp tables.
func (a *Adapter) BulkCopy(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []schema.FieldDef, src adapters.RowSource, opts adapters.BulkCopyOptions) (int64, error) {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}

	bulkOpts := mssql.BulkOptions{
		CheckConstraints: opts.CheckConstraints,
		FireTriggers:     opts.FireTriggers,
		KeepNulls:        opts.KeepNulls,
		Tablock:          opts.TableLock,
		RowsPerBatch:     opts.BatchSize,
	}

	stmt, err := s.PrepareContext(ctx, mssql.CopyIn(a.QualifiedName(t), bulkOpts, names...))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare bulk copy into %s: %w", t, err)
	}
	defer stmt.Close()

	rows := base.ConvertSource(src, columns, bulkValue)
	var sent int64
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return 0, fmt.Errorf("failed to read row %d: %w", sent+1, err)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return 0, fmt.Errorf("failed to send row %d to %s: %w", sent+1, t, err)
		}
		sent++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row source failed: %w", err)
	}

	// empty Exec finishes the load and reports the row count
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk copy into %s failed: %w", t, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sent, nil
	}
	return n, nil
}
