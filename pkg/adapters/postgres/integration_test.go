package postgres_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	_ "github.com/ruslano69/tdtp-bulk/pkg/adapters/postgres"
	"github.com/ruslano69/tdtp-bulk/pkg/bulk"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

const postgresImage = "postgres:16-alpine"

func startPostgres(t *testing.T) *bulk.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("container test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.WithDatabase("bulk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := bulk.Open(ctx, adapters.Config{Type: "pg", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

type Shipment struct {
	ID      int64     `db:"id,pk"`
	Ref     uuid.UUID `db:"ref"`
	Weight  float64   `db:"weight" precision:"10,3"`
	Fragile bool      `db:"fragile"`
	Comment *string   `db:"comment"`
	Sent    time.Time `db:"sent"`
}

func TestIntegration_PostgresTempTable(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	s, err := db.Session(ctx)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ExecContext(ctx, `CREATE TABLE public.shipments (id BIGINT PRIMARY KEY, region TEXT)`)
	require.NoError(t, err)
	_, err = s.ExecContext(ctx, `INSERT INTO public.shipments VALUES (1, 'north'), (3, 'south'), (99, 'west')`)
	require.NoError(t, err)

	items := make([]Shipment, 0, 10)
	for i := 1; i <= 10; i++ {
		items = append(items, Shipment{
			ID:      int64(i),
			Ref:     uuid.New(),
			Weight:  float64(i) / 4,
			Fragile: i%3 == 0,
			Sent:    time.Date(2024, 5, i, 10, 0, 0, 0, time.UTC),
		})
	}

	opts := bulk.DefaultTempTableInsertOptions()
	opts.BatchSize = 4

	q, err := bulk.InsertIntoTempTable(ctx, s, slices.Values(items), opts)
	require.NoError(t, err)
	defer q.Close(ctx)
	assert.Equal(t, int64(10), q.RowsInserted())

	// Временная таблица доступна для JOIN на том же соединении
	var joined int
	err = s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+q.Table().QualifiedName()+" t JOIN public.shipments s ON s.id = t.id").Scan(&joined)
	require.NoError(t, err)
	assert.Equal(t, 2, joined)

	got, err := q.Where(`"fragile"`).OrderBy(`"id"`).All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, items[2].Ref, got[0].Ref)
	assert.InDelta(t, 0.75, got[0].Weight, 1e-9)

	// Ключ создан после загрузки
	var pk int
	err = s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pg_constraint WHERE contype = 'p' AND conrelid = to_regclass($1)",
		q.Table().QualifiedName()).Scan(&pk)
	require.NoError(t, err)
	assert.Equal(t, 1, pk)

	// Другое соединение не видит таблицу
	other, err := db.Session(ctx)
	require.NoError(t, err)
	defer other.Close()
	_, err = other.ExecContext(ctx, "SELECT 1 FROM "+q.Table().QualifiedName())
	assert.Error(t, err)
}

func TestIntegration_PostgresDynamicAndRowVersion(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	s, err := db.Session(ctx)
	require.NoError(t, err)
	defer s.Close()

	et := entity.MustDefine("keys",
		schema.FieldDef{Name: "code", Type: schema.TypeText, Length: 16, Key: true},
		schema.FieldDef{Name: "qty", Type: schema.TypeInteger, Nullable: true},
	)
	records := []entity.Record{{"a", int64(1)}, {"b", nil}}

	q, err := bulk.InsertIntoTempTableSource(ctx, s, et, slices.Values(records), nil)
	require.NoError(t, err)
	defer q.Close(ctx)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, err := bulk.MinActiveRowVersion(ctx, s)
	require.NoError(t, err)
	assert.NotZero(t, uint64(v))
}
