package bulk

import "errors"

var (
	// ErrNoColumns - после фильтрации не осталось колонок
	ErrNoColumns = errors.New("bulk: no columns selected")

	// ErrNoKeyColumns - не из чего строить первичный ключ
	ErrNoKeyColumns = errors.New("bulk: no primary key columns")

	// ErrUnknownColumn - колонка отсутствует в таблице
	ErrUnknownColumn = errors.New("bulk: unknown column")

	// ErrSessionClosed - сессия уже закрыта
	ErrSessionClosed = errors.New("bulk: session is closed")
)
