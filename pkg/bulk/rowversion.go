package bulk

import (
	"context"
	"fmt"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/rowversion"
)

// MinActiveRowVersion возвращает минимальную активную версию строки
// Строки с версией ниже нее уже зафиксированы и не изменятся
// СУБД без такой возможности возвращают adapters.ErrNotSupported
func MinActiveRowVersion(ctx context.Context, s *Session) (rowversion.RowVersion, error) {
	if s.Closed() {
		return 0, ErrSessionClosed
	}
	provider, ok := s.adapter().(adapters.RowVersionProvider)
	if !ok {
		return 0, fmt.Errorf("min active row version on %s: %w", s.adapter().GetDatabaseType(), adapters.ErrNotSupported)
	}
	v, err := provider.MinActiveRowVersion(ctx, s)
	if err != nil {
		return 0, err
	}
	return rowversion.RowVersion(v), nil
}
