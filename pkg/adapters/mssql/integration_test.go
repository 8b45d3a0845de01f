package mssql_test

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	_ "github.com/ruslano69/tdtp-bulk/pkg/adapters/mssql"
	"github.com/ruslano69/tdtp-bulk/pkg/bulk"
	"github.com/ruslano69/tdtp-bulk/pkg/rowversion"
)

// Строка подключения берется из окружения, например значения из docker-compose.mssql.yml:
// MSSQL_TEST_DSN="server=localhost,1433;user id=sa;password=DevPassword123!;database=DevDB;encrypt=disable"
func openDB(t *testing.T) *bulk.DB {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := bulk.Open(ctx, adapters.Config{Type: "mssql", DSN: dsn, Schema: "dbo"})
	if err != nil {
		t.Skipf("MS SQL Server not available: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

type Ticket struct {
	ID      int64     `db:"id,pk"`
	Code    string    `db:"code" size:"20"`
	Token   uuid.UUID `db:"token"`
	Price   float64   `db:"price" precision:"12,2"`
	Urgent  bool      `db:"urgent"`
	Note    *string   `db:"note"`
	Created time.Time `db:"created"`
}

func TestIntegration_InsertIntoTempTable(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	s, err := db.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	defer s.Close()

	note := "vip"
	items := make([]Ticket, 0, 250)
	for i := 1; i <= 250; i++ {
		tk := Ticket{
			ID:      int64(i),
			Code:    "T-" + uuid.NewString()[:8],
			Token:   uuid.New(),
			Price:   float64(i) * 1.25,
			Urgent:  i%2 == 0,
			Created: time.Date(2024, 1, 1, 0, 0, i%60, 0, time.UTC),
		}
		if i%10 == 0 {
			tk.Note = &note
		}
		items = append(items, tk)
	}

	opts := bulk.DefaultTempTableInsertOptions()
	opts.BatchSize = 100

	q, err := bulk.InsertIntoTempTable(ctx, s, slices.Values(items), opts)
	if err != nil {
		t.Fatalf("InsertIntoTempTable failed: %v", err)
	}
	defer q.Close(ctx)

	if q.RowsInserted() != 250 {
		t.Errorf("RowsInserted = %d", q.RowsInserted())
	}

	n, err := q.Where(`[urgent] = 1`).Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 125 {
		t.Errorf("urgent count = %d, want 125", n)
	}

	// Временная таблица участвует в JOIN с collation пользовательской БД
	var matched int
	err = s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+q.Table().QualifiedName()+" t WHERE t.[code] IN (SELECT name COLLATE database_default FROM sys.objects)").
		Scan(&matched)
	if err != nil {
		t.Errorf("collation join failed: %v", err)
	}

	got, err := q.OrderBy("[id]").All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(got) != 250 || got[9].Note == nil || *got[9].Note != "vip" {
		t.Errorf("unexpected rows read back")
	}
	if len(got) > 0 && got[0].Token != items[0].Token {
		t.Errorf("token read back = %s, want %s", got[0].Token, items[0].Token)
	}
}

func TestIntegration_MinActiveRowVersion(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	s, err := db.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	defer s.Close()

	v, err := bulk.MinActiveRowVersion(ctx, s)
	if err != nil {
		t.Fatalf("MinActiveRowVersion failed: %v", err)
	}
	if v == rowversion.RowVersion(0) {
		t.Error("MIN_ACTIVE_ROWVERSION must be positive")
	}
	t.Logf("min active rowversion: %s", v)
}
