package bulk

import (
	"context"
	"fmt"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// TempTable - созданная временная таблица
type TempTable struct {
	session     *Session
	ref         adapters.TableRef
	entityType  *entity.EntityType
	properties  []*entity.Property
	dropOnClose bool
	dropped     bool

	// unique - имя содержит токен, таблицу создал именно этот вызов
	unique bool
}

// Name возвращает имя таблицы (для MS SQL - с префиксом '#')
func (t *TempTable) Name() string {
	return t.ref.Name
}

// Ref возвращает ссылку на таблицу
func (t *TempTable) Ref() adapters.TableRef {
	return t.ref
}

// QualifiedName возвращает квотированное имя для подстановки в SQL
func (t *TempTable) QualifiedName() string {
	return t.session.adapter().QualifiedName(t.ref)
}

// EntityType возвращает тип сущности таблицы
func (t *TempTable) EntityType() *entity.EntityType {
	return t.entityType
}

// Properties возвращает колонки таблицы в порядке создания
func (t *TempTable) Properties() []*entity.Property {
	return t.properties
}

// Truncate очищает таблицу
func (t *TempTable) Truncate(ctx context.Context) error {
	query := t.session.adapter().BuildTruncateTable(t.ref)
	if _, err := t.session.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", t.ref, err)
	}
	return nil
}

// Drop удаляет таблицу; повторный вызов ничего не делает
func (t *TempTable) Drop(ctx context.Context) error {
	if t.dropped {
		return nil
	}
	query := t.session.adapter().BuildDropTable(t.ref)
	if _, err := t.session.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop %s: %w", t.ref, err)
	}
	t.dropped = true
	t.session.db.logger.Debug().Str("table", t.ref.Name).Msg("temp table dropped")
	return nil
}

// CreateTempTable создает временную таблицу для сущности et
// opts == nil - DefaultTempTableOptions()
func CreateTempTable(ctx context.Context, s *Session, et *entity.EntityType, opts *TempTableOptions) (*TempTable, error) {
	if opts == nil {
		d := DefaultTempTableOptions()
		opts = &d
	}

	props := et.Properties(filters(opts.Include, opts.Exclude)...)
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: temp table for %s", ErrNoColumns, et.Name)
	}

	adapter := s.adapter()
	baseName := opts.TableName
	if baseName == "" {
		baseName = et.Name
	}
	ref := adapters.TableRef{
		Name: adapter.TempTableName(baseName, opts.MakeTableNameUnique),
		Temp: true,
	}

	stmts, err := adapter.BuildCreateTempTable(ref, entity.Columns(props), adapters.TempTableOptions{
		Unique:           opts.MakeTableNameUnique,
		TruncateIfExists: opts.TruncateTableIfExists,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build temp table %s: %w", ref.Name, err)
	}

	for _, stmt := range stmts {
		s.db.logger.Debug().Str("table", ref.Name).Str("sql", stmt).Msg("creating temp table")
		if _, err := s.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create temp table %s: %w", ref.Name, err)
		}
	}

	return &TempTable{
		session:     s,
		ref:         ref,
		entityType:  et,
		properties:  props,
		dropOnClose: opts.DropOnClose,
		unique:      opts.MakeTableNameUnique,
	}, nil
}
