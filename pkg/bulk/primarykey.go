package bulk

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// CreatePrimaryKey создает первичный ключ на таблице table сущности et
//
// columns - имена колонок или полей; пусто - ключевые свойства сущности.
// checkForExistence=true - существующий ключ не ошибка,
// false - возвращается adapters.ErrPrimaryKeyExists.
func CreatePrimaryKey(ctx context.Context, s *Session, et *entity.EntityType, table adapters.TableRef, columns []string, checkForExistence bool) error {
	return createPrimaryKey(ctx, s, table, et, et.Properties(), columns, checkForExistence)
}

// CreatePrimaryKey создает первичный ключ на временной таблице
// Колонки проверяются по колонкам таблицы, а не всей сущности
func (t *TempTable) CreatePrimaryKey(ctx context.Context, columns []string, checkForExistence bool) error {
	return createPrimaryKey(ctx, t.session, t.ref, t.entityType, t.properties, columns, checkForExistence)
}

func createPrimaryKey(
	ctx context.Context,
	s *Session,
	table adapters.TableRef,
	et *entity.EntityType,
	available []*entity.Property,
	columns []string,
	checkForExistence bool,
) error {
	if s.Closed() {
		return fmt.Errorf("primary key on %s: %w", table, ErrSessionClosed)
	}
	names, err := keyColumns(et, available, columns)
	if err != nil {
		return fmt.Errorf("primary key on %s: %w", table, err)
	}

	s.db.logger.Debug().
		Str("table", table.Name).
		Strs("columns", names).
		Bool("check_existence", checkForExistence).
		Msg("creating primary key")

	return s.adapter().CreatePrimaryKey(ctx, s, table, names, checkForExistence)
}

// keyColumns разрешает имена колонок ключа
func keyColumns(et *entity.EntityType, available []*entity.Property, columns []string) ([]string, error) {
	if len(columns) == 0 {
		keys := et.Keys()
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: entity %s has no keys", ErrNoKeyColumns, et.Name)
		}
		columns = entity.Names(keys)
	}

	inTable := make(map[*entity.Property]bool, len(available))
	for _, p := range available {
		inTable[p] = true
	}

	names := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		p, ok := et.Property(strings.TrimSpace(c))
		if !ok || !inTable[p] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		names = append(names, p.Name)
	}
	return names, nil
}
