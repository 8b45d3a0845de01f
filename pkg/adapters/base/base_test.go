package base_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestUniqueSuffix(t *testing.T) {
	a, b := base.UniqueSuffix(), base.UniqueSuffix()
	assert.Regexp(t, hexToken, a)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(base.UniqueName("orders"), "orders_"))
}

func TestShortenName(t *testing.T) {
	assert.Equal(t, "short", base.ShortenName("short", 10))
	assert.Equal(t, "unlimited", base.ShortenName("unlimited", 0))

	long1 := strings.Repeat("a", 40) + "1"
	long2 := strings.Repeat("a", 40) + "2"
	s1 := base.ShortenName(long1, 30)
	s2 := base.ShortenName(long2, 30)
	assert.Len(t, s1, 30)
	assert.NotEqual(t, s1, s2)
	assert.True(t, strings.HasPrefix(s1, "aaaaaaaaaaaaa_"))

	assert.Len(t, base.ShortenName(long1, 8), 8)
}

func TestDialect_Quote(t *testing.T) {
	mssql := base.Dialect{QuoteOpen: "[", QuoteClose: "]"}
	pg := base.Dialect{QuoteOpen: `"`, QuoteClose: `"`}

	assert.Equal(t, "[a]]b]", mssql.QuoteIdentifier("a]b"))
	assert.Equal(t, `"say ""hi"""`, pg.QuoteIdentifier(`say "hi"`))
	assert.Equal(t, `"a", "b"`, pg.QuoteList([]string{"a", "b"}))
	assert.Equal(t, `"id", "name"`, pg.ColumnList([]schema.FieldDef{{Name: "id"}, {Name: "name"}}))
}

func TestDialect_QualifiedName(t *testing.T) {
	sqlite := base.Dialect{QuoteOpen: `"`, QuoteClose: `"`, TempSchema: "temp"}
	mssql := base.Dialect{QuoteOpen: "[", QuoteClose: "]", TempPrefix: "#"}

	assert.Equal(t, `"dbo"."orders"`, sqlite.QualifiedName(adapters.TableRef{Schema: "dbo", Name: "orders"}))
	assert.Equal(t, `"orders"`, sqlite.QualifiedName(adapters.TableRef{Name: "orders"}))
	assert.Equal(t, `temp."tmp"`, sqlite.QualifiedName(adapters.TableRef{Schema: "dbo", Name: "tmp", Temp: true}))
	assert.Equal(t, "[#tmp]", mssql.QualifiedName(adapters.TableRef{Schema: "dbo", Name: "#tmp", Temp: true}))
}

func TestDialect_TempTableName(t *testing.T) {
	mssql := base.Dialect{QuoteOpen: "[", QuoteClose: "]", TempPrefix: "#", MaxIdentifierLength: 116}

	name := mssql.TempTableName("Customer", true)
	assert.Regexp(t, `^#Customer_[0-9a-f]{32}$`, name)
	assert.NotEqual(t, name, mssql.TempTableName("Customer", true))

	assert.Equal(t, "#Staging", mssql.TempTableName("#Staging", false))

	long := strings.Repeat("x", 200)
	uniqueLong := mssql.TempTableName(long, true)
	assert.Len(t, uniqueLong, 116)
	assert.Regexp(t, `_[0-9a-f]{32}$`, uniqueLong)

	assert.Len(t, mssql.TempTableName(long, false), 116)

	pg := base.Dialect{QuoteOpen: `"`, QuoteClose: `"`, MaxIdentifierLength: 63}
	assert.Len(t, pg.TempTableName(strings.Repeat("y", 80), true), 63)
}

type upperMapper struct{}

func (upperMapper) SQLType(f schema.FieldDef) string {
	if f.SQLType != "" {
		return f.SQLType
	}
	return string(schema.NormalizeType(f.Type))
}

func TestColumnDefinitions(t *testing.T) {
	d := base.Dialect{QuoteOpen: "[", QuoteClose: "]"}
	cols := []schema.FieldDef{
		{Name: "id", Type: schema.TypeInteger, Key: true},
		{Name: "name", Type: schema.TypeText, Nullable: true},
		{Name: "code", SQLType: "NCHAR(3)"},
	}
	collate := func(f schema.FieldDef) string {
		if schema.IsTextType(f.Type) {
			return "COLLATE database_default"
		}
		return ""
	}

	defs, err := base.ColumnDefinitions(d, upperMapper{}, cols, collate)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[id] INTEGER NOT NULL",
		"[name] TEXT COLLATE database_default NULL",
		"[code] NCHAR(3) NOT NULL",
	}, defs)
	assert.Equal(t, "(\n  a,\n  b\n)", base.CreateTableBody([]string{"a", "b"}))

	_, err = base.ColumnDefinitions(d, upperMapper{}, nil, nil)
	assert.Error(t, err)

	_, err = base.ColumnDefinitions(d, upperMapper{}, []schema.FieldDef{
		{Name: "a", Type: schema.TypeText},
		{Name: "A", Type: schema.TypeText},
	}, nil)
	assert.Error(t, err)
}

func TestToDriverValue(t *testing.T) {
	intCol := schema.FieldDef{Name: "n", Type: schema.TypeInteger}
	textCol := schema.FieldDef{Name: "s", Type: schema.TypeText}
	boolCol := schema.FieldDef{Name: "b", Type: schema.TypeBoolean}

	cases := []struct {
		name string
		in   any
		col  schema.FieldDef
		want any
	}{
		{"nil", nil, intCol, nil},
		{"int", 5, intCol, int64(5)},
		{"int16", int16(-3), intCol, int64(-3)},
		{"uint32", uint32(7), intCol, int64(7)},
		{"float32", float32(1.5), intCol, float64(1.5)},
		{"bool in integer column", true, intCol, int64(1)},
		{"false in integer column", false, intCol, int64(0)},
		{"bool in boolean column", true, boolCol, true},
		{"int64 in text column", int64(42), textCol, "42"},
		{"string passthrough", "x", textCol, "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := base.ToDriverValue(tc.in, tc.col)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := base.ToDriverValue(uint64(math.MaxUint64), intCol)
	assert.Error(t, err)
}

func TestToText(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 120000000, time.UTC)

	s, ok := base.ToText(nil, schema.FieldDef{})
	assert.False(t, ok)
	assert.Empty(t, s)

	s, _ = base.ToText(true, schema.FieldDef{Type: schema.TypeBoolean})
	assert.Equal(t, "1", s)
	s, _ = base.ToText(int64(-9), schema.FieldDef{})
	assert.Equal(t, "-9", s)
	s, _ = base.ToText(2.25, schema.FieldDef{})
	assert.Equal(t, "2.25", s)
	s, _ = base.ToText(ts, schema.FieldDef{Type: schema.TypeDate})
	assert.Equal(t, "2024-03-09", s)
	s, _ = base.ToText(ts, schema.FieldDef{Type: schema.TypeDatetime})
	assert.Equal(t, "2024-03-09 14:05:06.12", s)
	s, _ = base.ToText([]byte("raw"), schema.FieldDef{})
	assert.Equal(t, "raw", s)
}

// sliceSource - источник строк из среза
type sliceSource struct {
	rows [][]any
	pos  int
	err  error
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Values() ([]any, error) { return s.rows[s.pos-1], nil }
func (s *sliceSource) Err() error             { return s.err }

func TestConvertSource(t *testing.T) {
	cols := []schema.FieldDef{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "flag", Type: schema.TypeInteger},
	}
	src := base.ConvertSource(&sliceSource{rows: [][]any{{1, true}, {int8(2), false}}}, cols, base.ToDriverValue)

	require.True(t, src.Next())
	vals, err := src.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(1)}, vals)

	require.True(t, src.Next())
	vals, err = src.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(0)}, vals)
	assert.False(t, src.Next())

	short := base.ConvertSource(&sliceSource{rows: [][]any{{1}}}, cols, base.ToDriverValue)
	require.True(t, short.Next())
	_, err = short.Values()
	assert.Error(t, err)
}

// dbSession адаптирует *sql.DB к adapters.Session
type dbSession struct{ *sql.DB }

func (dbSession) Raw(func(any) error) error { return adapters.ErrNotSupported }
func (dbSession) InTx() bool                { return false }

func TestInsertRows(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	d := base.Dialect{QuoteOpen: `"`, QuoteClose: `"`}
	cols := []schema.FieldDef{{Name: "id"}, {Name: "name"}}

	prep := mock.ExpectPrepare(`INSERT INTO "t" ("id", "name") VALUES (?, ?)`)
	prep.ExpectExec().WithArgs(int64(1), "a").WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(int64(2), "b").WillReturnResult(sqlmock.NewResult(2, 1))

	src := &sliceSource{rows: [][]any{{int64(1), "a"}, {int64(2), "b"}}}
	n, err := base.InsertRows(context.Background(), dbSession{db}, d, `"t"`, cols, src, base.QuestionMark)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRows_Errors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	d := base.Dialect{QuoteOpen: `"`, QuoteClose: `"`}
	cols := []schema.FieldDef{{Name: "id"}}

	_, err = base.InsertRows(context.Background(), dbSession{db}, d, `"t"`, nil, &sliceSource{}, base.QuestionMark)
	assert.Error(t, err)

	boom := errors.New("constraint violation")
	prep := mock.ExpectPrepare(`INSERT INTO "t" ("id") VALUES (?)`)
	prep.ExpectExec().WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(int64(1)).WillReturnError(boom)

	src := &sliceSource{rows: [][]any{{int64(1)}, {int64(1)}}}
	n, err := base.InsertRows(context.Background(), dbSession{db}, d, `"t"`, cols, src, base.QuestionMark)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), n)

	failing := &sliceSource{err: errors.New("source broke")}
	mock.ExpectPrepare(`INSERT INTO "t" ("id") VALUES (?)`)
	_, err = base.InsertRows(context.Background(), dbSession{db}, d, `"t"`, cols, failing, base.QuestionMark)
	assert.ErrorContains(t, err, "source broke")
}
