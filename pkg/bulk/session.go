package bulk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
)

// Compile-time check
var _ adapters.Session = (*Session)(nil)

// Session - одно физическое подключение и, опционально, транзакция
// Session не предназначена для одновременного использования из нескольких горутин
type Session struct {
	db   *DB
	conn *sql.Conn
	tx   *sql.Tx

	// closed - подключение после Close; его *sql.Row несут sql.ErrConnDone
	closed *sql.Conn
}

// DB возвращает DB, создавшую сессию
func (s *Session) DB() *DB {
	return s.db
}

// Conn возвращает подключение сессии
func (s *Session) Conn() *sql.Conn {
	return s.conn
}

// UseTx подключает сессию к существующей транзакции
// tx должна быть начата на подключении этой сессии; nil отключает транзакцию
func (s *Session) UseTx(tx *sql.Tx) {
	s.tx = tx
}

// Tx возвращает текущую транзакцию или nil
func (s *Session) Tx() *sql.Tx {
	return s.tx
}

// BeginTx начинает транзакцию на подключении сессии
func (s *Session) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return nil, errors.New("bulk: session already has an active transaction")
	}
	tx, err := s.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Commit фиксирует транзакцию сессии
func (s *Session) Commit() error {
	if s.tx == nil {
		return errors.New("bulk: no active transaction")
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// Rollback откатывает транзакцию сессии
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// Closed - сессия закрыта
func (s *Session) Closed() bool {
	return s.conn == nil
}

// InTx реализует adapters.Session
func (s *Session) InTx() bool {
	return s.tx != nil
}

// ExecContext реализует adapters.Session
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.ExecContext(ctx, query, args...)
	}
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return s.conn.ExecContext(ctx, query, args...)
}

// QueryContext реализует adapters.Session
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.tx != nil {
		return s.tx.QueryContext(ctx, query, args...)
	}
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext реализует adapters.Session
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if s.tx != nil {
		return s.tx.QueryRowContext(ctx, query, args...)
	}
	if s.conn == nil {
		return s.closed.QueryRowContext(ctx, query, args...)
	}
	return s.conn.QueryRowContext(ctx, query, args...)
}

// PrepareContext реализует adapters.Session
func (s *Session) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	if s.tx != nil {
		return s.tx.PrepareContext(ctx, query)
	}
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return s.conn.PrepareContext(ctx, query)
}

// Raw реализует adapters.Session
func (s *Session) Raw(f func(driverConn any) error) error {
	if s.conn == nil {
		return ErrSessionClosed
	}
	return s.conn.Raw(f)
}

// Close откатывает незавершенную транзакцию и возвращает подключение в пул
// Временные таблицы сессии остаются на подключении до его закрытия
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		s.tx = nil
	}
	errs = append(errs, s.conn.Close())
	s.closed, s.conn = s.conn, nil
	return errors.Join(errs...)
}

func (s *Session) adapter() adapters.Adapter {
	return s.db.adapter
}
