package bulk

import (
	"context"
	"fmt"
	"iter"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// InsertIntoTempTable создает временную таблицу для сущности T, загружает в нее
// items средствами массовой вставки СУБД и возвращает запрос к таблице
// opts == nil - DefaultTempTableInsertOptions()
func InsertIntoTempTable[T any](ctx context.Context, s *Session, items iter.Seq[T], opts *TempTableInsertOptions) (*TempTableQuery[T], error) {
	et, err := entity.For[T](s.db.registry)
	if err != nil {
		return nil, err
	}
	return InsertIntoTempTableSource(ctx, s, et, items, opts)
}

// InsertIntoTempTableSource - как InsertIntoTempTable, но с явным типом сущности
// Используется для динамических сущностей (entity.Define, T = entity.Record)
func InsertIntoTempTableSource[T any](ctx context.Context, s *Session, et *entity.EntityType, items iter.Seq[T], opts *TempTableInsertOptions) (*TempTableQuery[T], error) {
	if opts == nil {
		opts = DefaultTempTableInsertOptions()
	}

	table, err := CreateTempTable(ctx, s, et, &opts.TempTable)
	if err != nil {
		return nil, err
	}

	// При ошибке удаляется только таблица с уникальным именем: таблицу с общим
	// именем мог создать предыдущий вызов, и ее данные еще читает его запрос
	fail := func(err error) (*TempTableQuery[T], error) {
		if table.dropOnClose && table.unique {
			if dropErr := table.Drop(context.WithoutCancel(ctx)); dropErr != nil {
				s.db.logger.Warn().Err(dropErr).Str("table", table.Name()).Msg("failed to drop temp table after error")
			}
		}
		return nil, err
	}

	reader := NewEntityReader(et, table.properties, items)
	defer reader.Close()

	rows, err := copyRows(ctx, s, table.ref, entity.Columns(table.properties), reader, opts.CopyOptions)
	if err != nil {
		return fail(fmt.Errorf("failed to insert into temp table %s: %w", table.Name(), err))
	}

	if err := createTempTableKey(ctx, table, opts.TempTable.PrimaryKey); err != nil {
		return fail(err)
	}

	s.db.logger.Debug().
		Str("entity", et.Name).
		Str("table", table.Name()).
		Int64("rows", rows).
		Msg("temp table populated")

	return newTempTableQuery[T](table, rows), nil
}

func createTempTableKey(ctx context.Context, table *TempTable, mode PrimaryKeyMode) error {
	switch mode {
	case PrimaryKeyNone:
		return nil
	case PrimaryKeyEntityKeys:
		keys := table.entityType.Keys()
		if len(keys) == 0 {
			return nil
		}
		return table.CreatePrimaryKey(ctx, entity.Names(keys), true)
	case PrimaryKeyAllColumns:
		return table.CreatePrimaryKey(ctx, entity.Names(table.properties), true)
	default:
		return fmt.Errorf("unknown primary key mode %d", mode)
	}
}

// Insert загружает items в постоянную таблицу сущности T
// Вычисляемые колонки и rowversion не передаются
func Insert[T any](ctx context.Context, s *Session, items iter.Seq[T], opts *InsertOptions) (int64, error) {
	et, err := entity.For[T](s.db.registry)
	if err != nil {
		return 0, err
	}
	return InsertSource(ctx, s, et, items, opts)
}

// InsertSource - как Insert, но с явным типом сущности
func InsertSource[T any](ctx context.Context, s *Session, et *entity.EntityType, items iter.Seq[T], opts *InsertOptions) (int64, error) {
	if opts == nil {
		opts = &InsertOptions{CopyOptions: CopyOptions{EnableStreaming: true}}
	}

	props := et.Properties(append(filters(opts.Include, opts.Exclude), entity.Writable)...)
	if len(props) == 0 {
		return 0, fmt.Errorf("%w: insert into %s", ErrNoColumns, et.Name)
	}

	reader := NewEntityReader(et, props, items)
	defer reader.Close()

	ref := adapters.TableRef{Schema: et.Schema, Name: et.Name}
	rows, err := copyRows(ctx, s, ref, entity.Columns(props), reader, opts.CopyOptions)
	if err != nil {
		return rows, fmt.Errorf("failed to insert into %s: %w", ref, err)
	}
	return rows, nil
}
