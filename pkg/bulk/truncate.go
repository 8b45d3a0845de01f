package bulk

import (
	"context"
	"fmt"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// TruncateTable очищает постоянную таблицу сущности et
func TruncateTable(ctx context.Context, s *Session, et *entity.EntityType) error {
	ref := adapters.TableRef{Schema: et.Schema, Name: et.Name}
	query := s.adapter().BuildTruncateTable(ref)
	if _, err := s.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", ref, err)
	}
	s.db.logger.Debug().Str("table", ref.String()).Msg("table truncated")
	return nil
}

// Truncate очищает постоянную таблицу сущности T
func Truncate[T any](ctx context.Context, s *Session) error {
	et, err := entity.For[T](s.db.registry)
	if err != nil {
		return err
	}
	return TruncateTable(ctx, s, et)
}
