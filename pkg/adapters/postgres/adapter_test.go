package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

type dbSession struct{ *sql.DB }

func (dbSession) Raw(func(any) error) error { return adapters.ErrNotSupported }
func (dbSession) InTx() bool                { return false }

func TestSchemaToPostgreSQL(t *testing.T) {
	tests := []struct {
		field schema.FieldDef
		want  string
	}{
		{schema.FieldDef{Type: schema.TypeInteger}, "BIGINT"},
		{schema.FieldDef{Type: schema.TypeInteger, Subtype: schema.SubtypeInt}, "INTEGER"},
		{schema.FieldDef{Type: schema.TypeInteger, Subtype: schema.SubtypeSmallInt}, "SMALLINT"},
		{schema.FieldDef{Type: schema.TypeReal}, "DOUBLE PRECISION"},
		{schema.FieldDef{Type: schema.TypeReal, Subtype: schema.SubtypeFloat32}, "REAL"},
		{schema.FieldDef{Type: schema.TypeDecimal, Precision: 10, Scale: 0}, "NUMERIC(10,0)"},
		{schema.FieldDef{Type: schema.TypeDecimal}, "NUMERIC(18,2)"},
		{schema.FieldDef{Type: schema.TypeText, Length: 20}, "VARCHAR(20)"},
		{schema.FieldDef{Type: "string"}, "TEXT"},
		{schema.FieldDef{Type: schema.TypeBoolean}, "BOOLEAN"},
		{schema.FieldDef{Type: schema.TypeDate}, "DATE"},
		{schema.FieldDef{Type: schema.TypeDatetime}, "TIMESTAMP"},
		{schema.FieldDef{Type: schema.TypeUUID}, "UUID"},
		{schema.FieldDef{Type: schema.TypeBlob, Subtype: schema.SubtypeRowVersion}, "BYTEA"},
		{schema.FieldDef{Type: schema.TypeText, SQLType: "JSONB"}, "JSONB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SchemaToPostgreSQL(tt.field), "%+v", tt.field)
	}
}

func TestApplySSL(t *testing.T) {
	dsn, err := applySSL("postgresql://u:p@localhost:5432/db", adapters.SSLConfig{Mode: "verify-ca", CAPath: "/etc/ca.pem"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=verify-ca")
	assert.Contains(t, dsn, "sslrootcert=%2Fetc%2Fca.pem")

	dsn, err = applySSL("host=localhost dbname=db", adapters.SSLConfig{Mode: "require"})
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=db sslmode='require'", dsn)

	dsn, err = applySSL("host=localhost", adapters.SSLConfig{})
	require.NoError(t, err)
	assert.Equal(t, "host=localhost", dsn)
}

func TestBuildCreateTempTable(t *testing.T) {
	a := NewAdapter()
	ref := adapters.TableRef{Name: "Orders_tmp", Temp: true}
	cols := []schema.FieldDef{
		{Name: "id", Type: schema.TypeInteger, Key: true},
		{Name: "Total", Type: schema.TypeDecimal, Precision: 12, Scale: 2, Nullable: true},
	}

	stmts, err := a.BuildCreateTempTable(ref, cols, adapters.TempTableOptions{Unique: true})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "CREATE TEMP TABLE \"Orders_tmp\" (\n  \"id\" BIGINT NOT NULL,\n  \"Total\" NUMERIC(12,2) NULL\n)", stmts[0])

	stmts, err = a.BuildCreateTempTable(ref, cols, adapters.TempTableOptions{TruncateIfExists: true})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], `CREATE TEMP TABLE IF NOT EXISTS "Orders_tmp"`))
	assert.Equal(t, `TRUNCATE TABLE pg_temp."Orders_tmp"`, stmts[1])

	assert.Equal(t, `DROP TABLE IF EXISTS pg_temp."Orders_tmp"`, a.BuildDropTable(ref))
	assert.Equal(t, `TRUNCATE TABLE "sales"."orders"`, a.BuildTruncateTable(adapters.TableRef{Schema: "sales", Name: "orders"}))

	assert.Len(t, a.TempTableName(strings.Repeat("a", 100), true), maxIdentifierLength)
}

func TestIdentifier(t *testing.T) {
	a := NewAdapter()
	assert.Equal(t, pgx.Identifier{"pg_temp", "t"}, a.identifier(adapters.TableRef{Schema: "x", Name: "t", Temp: true}))
	assert.Equal(t, pgx.Identifier{"sales", "t"}, a.identifier(adapters.TableRef{Schema: "sales", Name: "t"}))
	assert.Equal(t, pgx.Identifier{"t"}, a.identifier(adapters.TableRef{Name: "t"}))
}

func TestCreatePrimaryKey(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	a := NewAdapter()
	ctx := context.Background()
	ref := adapters.TableRef{Name: "tmp", Temp: true}
	check := "SELECT COUNT(*) FROM pg_constraint WHERE contype = 'p' AND conrelid = to_regclass($1)"

	mock.ExpectQuery(check).WithArgs(`pg_temp."tmp"`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`ALTER TABLE pg_temp."tmp" ADD CONSTRAINT "PK_tmp" PRIMARY KEY ("a", "b")`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, a.CreatePrimaryKey(ctx, dbSession{db}, ref, []string{"a", "b"}, false))

	mock.ExpectQuery(check).WithArgs(`pg_temp."tmp"`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	assert.NoError(t, a.CreatePrimaryKey(ctx, dbSession{db}, ref, []string{"a"}, true))

	mock.ExpectQuery(check).WithArgs(`pg_temp."tmp"`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	err = a.CreatePrimaryKey(ctx, dbSession{db}, ref, []string{"a"}, false)
	assert.ErrorIs(t, err, adapters.ErrPrimaryKeyExists)

	mock.ExpectQuery(check).WithArgs(`pg_temp."tmp"`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`ALTER TABLE pg_temp."tmp" ADD CONSTRAINT "PK_tmp" PRIMARY KEY ("a")`).
		WillReturnError(&pgconn.PgError{Code: pgMultiplePrimaryKeys, Message: "multiple primary keys for table \"tmp\" are not allowed"})
	assert.NoError(t, a.CreatePrimaryKey(ctx, dbSession{db}, ref, []string{"a"}, true))

	assert.Error(t, a.CreatePrimaryKey(ctx, dbSession{db}, ref, nil, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMinActiveRowVersion(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT pg_snapshot_xmin(pg_current_snapshot())::text::bigint").
		WillReturnRows(sqlmock.NewRows([]string{"xmin"}).AddRow(int64(7341)))

	v, err := NewAdapter().MinActiveRowVersion(context.Background(), dbSession{db})
	require.NoError(t, err)
	assert.Equal(t, uint64(7341), v)
}

func TestCopyValue(t *testing.T) {
	dec := schema.FieldDef{Name: "d", Type: schema.TypeDecimal, Precision: 10, Scale: 2}
	v, err := copyValue("12.50", dec)
	require.NoError(t, err)
	n, ok := v.(pgtype.Numeric)
	require.True(t, ok)
	f, err := n.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, f.Float64, 1e-9)

	_, err = copyValue("abc", dec)
	assert.Error(t, err)

	id := schema.FieldDef{Name: "u", Type: schema.TypeUUID}
	v, err = copyValue("6ba7b810-9dad-11d1-80b4-00c04fd430c8", id)
	require.NoError(t, err)
	arr, ok := v.([16]byte)
	require.True(t, ok)
	assert.Equal(t, byte(0x6b), arr[0])

	text := schema.FieldDef{Name: "s", Type: schema.TypeText}
	v, _ = copyValue(int64(5), text)
	assert.Equal(t, "5", v)
	v, _ = copyValue(true, text)
	assert.Equal(t, "1", v)

	flag := schema.FieldDef{Name: "b", Type: schema.TypeBoolean}
	v, _ = copyValue(int64(1), flag)
	assert.Equal(t, true, v)

	v, _ = copyValue(nil, flag)
	assert.Nil(t, v)
}

func TestIsPrimaryKeyExists(t *testing.T) {
	assert.True(t, isPrimaryKeyExists(&pgconn.PgError{Code: "42P16"}))
	assert.False(t, isPrimaryKeyExists(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isPrimaryKeyExists(errors.New("42P16")))
}

func TestRegisteredAliases(t *testing.T) {
	for _, name := range []string{"postgres", "PostgreSQL", "pg"} {
		assert.Equal(t, "postgres", adapters.Resolve(name))
	}
	assert.ErrorIs(t, NewAdapter().Ping(context.Background()), adapters.ErrNotConnected)
}
