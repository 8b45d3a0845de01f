package mysql

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// nullMarker - NULL в формате LOAD DATA с ESCAPED BY '\\'
const nullMarker = `\N`

// BuildCreateTempTable генерирует CREATE TEMPORARY TABLE
// Временная таблица MySQL видна только своему соединению и перекрывает
// одноименную постоянную таблицу
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
		fmt.Sprintf("CREATE TEMPORARY TABLE %s%s %s", guard, a.QuoteIdentifier(t.Name), base.CreateTableBody(defs)),
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
// DROP TEMPORARY не трогает постоянную таблицу с тем же именем
func (a *Adapter) BuildDropTable(t adapters.TableRef) string {
	if t.Temp {
		return "DROP TEMPORARY TABLE IF EXISTS " + a.QualifiedName(t)
	}
	return "DROP TABLE IF EXISTS " + a.QualifiedName(t)
}

// CreatePrimaryKey добавляет первичный ключ через ALTER TABLE
// Ключ MySQL всегда называется PRIMARY, повторный ключ - ошибка 1068
func (a *Adapter) CreatePrimaryKey(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []string, checkForExistence bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("no primary key columns for %s", t)
	}

	alter := fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", a.QualifiedName(t), a.QuoteList(columns))
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

// BulkCopy загружает строки через LOAD DATA LOCAL INFILE
// Данные передаются потоком: источник пишется в io.Pipe, драйвер читает
// его через зарегистрированный Reader handler
// Если local_infile выключен на сервере, используется подготовленный INSERT
func (a *Adapter) BulkCopy(ctx context.Context, s adapters.Session, t adapters.TableRef, columns []schema.FieldDef, src adapters.RowSource, opts adapters.BulkCopyOptions) (int64, error) {
	if !a.localInfile {
		return base.InsertRows(ctx, s, a.Dialect, a.QualifiedName(t), columns,
			base.ConvertSource(src, columns, insertValue), base.QuestionMark)
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := writeRows(pw, src, columns)
		pw.CloseWithError(err)
		done <- err
	}()

	handler := "tdtp_" + base.UniqueSuffix()
	mysql.RegisterReaderHandler(handler, func() io.Reader { return pr })
	defer mysql.DeregisterReaderHandler(handler)

	res, execErr := s.ExecContext(ctx, a.loadDataQuery(t, columns, handler))

	// сервер мог отказаться от данных, не дочитав поток
	pr.Close()
	if werr := <-done; werr != nil && !errors.Is(werr, io.ErrClosedPipe) {
		return 0, fmt.Errorf("failed to stream rows into %s: %w", t, werr)
	}
	if execErr != nil {
		return 0, fmt.Errorf("failed to load data into %s: %w", t, execErr)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get loaded row count: %w", err)
	}
	return count, nil
}

// loadDataQuery строит LOAD DATA для формата, который пишет writeRows
func (a *Adapter) loadDataQuery(t adapters.TableRef, columns []schema.FieldDef, handler string) string {
	return fmt.Sprintf("LOAD DATA LOCAL INFILE 'Reader::%s' INTO TABLE %s CHARACTER SET utf8mb4 "+
		`FIELDS TERMINATED BY '\t' ESCAPED BY '\\' LINES TERMINATED BY '\n' (%s)`,
		handler, a.QualifiedName(t), a.ColumnList(columns))
}

// writeRows пишет строки источника в w: поля через TAB, строки через LF
func writeRows(w io.Writer, src adapters.RowSource, columns []schema.FieldDef) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	var line strings.Builder

	for n := 1; src.Next(); n++ {
		vals, err := src.Values()
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", n, err)
		}
		if len(vals) != len(columns) {
			return fmt.Errorf("row %d has %d values, expected %d columns", n, len(vals), len(columns))
		}

		line.Reset()
		for i, v := range vals {
			if i > 0 {
				line.WriteByte('\t')
			}
			text, ok, err := loadValue(v, columns[i])
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", n, columns[i].Name, err)
			}
			if !ok {
				line.WriteString(nullMarker)
				continue
			}
			escapeField(&line, text)
		}
		line.WriteByte('\n')

		if _, err := bw.WriteString(line.String()); err != nil {
			return err
		}
	}
	if err := src.Err(); err != nil {
		return fmt.Errorf("row source failed: %w", err)
	}
	return bw.Flush()
}

// loadValue форматирует значение для LOAD DATA, false - NULL
func loadValue(v any, col schema.FieldDef) (string, bool, error) {
	v, err := base.ToDriverValue(v, col)
	if err != nil || v == nil {
		return "", false, err
	}
	if schema.NormalizeType(col.Type) == schema.TypeUUID && col.SQLType == "" {
		if b, ok := v.([]byte); ok && len(b) == 16 {
			return uuid.UUID(b).String(), true, nil
		}
	}
	text, ok := base.ToText(v, col)
	return text, ok, nil
}

// escapeField экранирует служебные символы формата LOAD DATA
func escapeField(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}
}

// insertValue - приведение значений для INSERT без LOAD DATA
func insertValue(v any, col schema.FieldDef) (any, error) {
	v, err := base.ToDriverValue(v, col)
	if err != nil || v == nil {
		return v, err
	}
	if schema.NormalizeType(col.Type) == schema.TypeUUID && col.SQLType == "" {
		if b, ok := v.([]byte); ok && len(b) == 16 {
			return uuid.UUID(b).String(), nil
		}
	}
	return v, nil
}
