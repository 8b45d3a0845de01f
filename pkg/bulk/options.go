package bulk

import (
	"time"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
)

// PrimaryKeyMode - создавать ли первичный ключ после загрузки
type PrimaryKeyMode int

const (
	// PrimaryKeyNone - ключ не создается
	PrimaryKeyNone PrimaryKeyMode = iota

	// PrimaryKeyEntityKeys - ключ по ключевым свойствам сущности
	// Отсутствие ключевых свойств не ошибка; существующий ключ не ошибка
	PrimaryKeyEntityKeys

	// PrimaryKeyAllColumns - ключ по всем колонкам временной таблицы
	PrimaryKeyAllColumns
)

func (m PrimaryKeyMode) String() string {
	switch m {
	case PrimaryKeyNone:
		return "none"
	case PrimaryKeyEntityKeys:
		return "entity-keys"
	case PrimaryKeyAllColumns:
		return "all-columns"
	default:
		return "unknown"
	}
}

// TempTableOptions - параметры создания временной таблицы
type TempTableOptions struct {
	// TableName - базовое имя, по умолчанию имя таблицы сущности
	TableName string

	// MakeTableNameUnique добавляет к имени токен уникальности
	MakeTableNameUnique bool

	// TruncateTableIfExists очищает таблицу с тем же (не уникальным) именем
	TruncateTableIfExists bool

	// DropOnClose удаляет таблицу при закрытии TempTableQuery
	DropOnClose bool

	// Include/Exclude - фильтр колонок по имени колонки или поля
	Include []string
	Exclude []string

	// PrimaryKey - режим создания первичного ключа
	PrimaryKey PrimaryKeyMode
}

// DefaultTempTableOptions - уникальное имя, ключ по ключам сущности, удаление при закрытии
func DefaultTempTableOptions() TempTableOptions {
	return TempTableOptions{
		MakeTableNameUnique: true,
		DropOnClose:         true,
		PrimaryKey:          PrimaryKeyEntityKeys,
	}
}

// CopyOptions - параметры массовой вставки
type CopyOptions struct {
	// BatchSize - строк в одной операции массовой вставки, 0 - одна операция на все строки
	BatchSize int

	// Timeout - ограничение на всю загрузку, 0 - без ограничения
	Timeout time.Duration

	// EnableStreaming передает строки драйверу по мере чтения
	// false - каждый пакет сначала читается в память целиком
	EnableStreaming bool

	// Флаги MS SQL bulk copy
	TableLock        bool
	CheckConstraints bool
	FireTriggers     bool
	KeepNulls        bool
}

func (o CopyOptions) adapterOptions() adapters.BulkCopyOptions {
	return adapters.BulkCopyOptions{
		BatchSize:        o.BatchSize,
		TableLock:        o.TableLock,
		CheckConstraints: o.CheckConstraints,
		FireTriggers:     o.FireTriggers,
		KeepNulls:        o.KeepNulls,
	}
}

// TempTableInsertOptions - параметры InsertIntoTempTable
type TempTableInsertOptions struct {
	TempTable TempTableOptions
	CopyOptions
}

// DefaultTempTableInsertOptions - параметры, используемые при opts == nil
func DefaultTempTableInsertOptions() *TempTableInsertOptions {
	return &TempTableInsertOptions{
		TempTable: DefaultTempTableOptions(),
		CopyOptions: CopyOptions{
			EnableStreaming: true,
		},
	}
}

// InsertOptions - параметры Insert в постоянную таблицу
type InsertOptions struct {
	// Include/Exclude - фильтр колонок; вычисляемые колонки и rowversion исключаются всегда
	Include []string
	Exclude []string

	CopyOptions
}

func filters(include, exclude []string) []entity.Filter {
	return []entity.Filter{entity.Include(include...), entity.Exclude(exclude...)}
}
