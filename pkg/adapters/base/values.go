package base

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/core/schema"
)

// ValueFunc приводит значение колонки к виду, который принимает драйвер
type ValueFunc func(v any, col schema.FieldDef) (any, error)

// ToDriverValue - общее приведение значений для всех адаптеров
// Целые приводятся к int64, float32 к float64, bool в целочисленной колонке к 0/1,
// числа в текстовой колонке к строке
func ToDriverValue(v any, col schema.FieldDef) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return uintToInt64(uint64(val), col)
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return uintToInt64(val, col)
	case float32:
		return float64(val), nil
	case bool:
		if schema.NormalizeType(col.Type) == schema.TypeInteger {
			if val {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return val, nil
	case int64:
		if schema.NormalizeType(col.Type) == schema.TypeText && col.SQLType == "" {
			return strconv.FormatInt(val, 10), nil
		}
		return val, nil
	default:
		return v, nil
	}
}

func uintToInt64(v uint64, col schema.FieldDef) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("column %s: value %d overflows int64", col.Name, v)
	}
	return int64(v), nil
}

// ToText форматирует значение для текстовых протоколов загрузки (MySQL LOAD DATA)
// Второй результат false означает NULL
func ToText(v any, col schema.FieldDef) (string, bool) {
	if v == nil {
		return "", false
	}

	switch val := v.(type) {
	case []byte:
		// экранирование делает вызывающий
		return string(val), true
	case string:
		return val, true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), true
	case bool:
		if val {
			return "1", true
		}
		return "0", true
	case time.Time:
		if schema.NormalizeType(col.Type) == schema.TypeDate {
			return val.Format("2006-01-02"), true
		}
		return val.Format("2006-01-02 15:04:05.999999"), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// ConvertSource оборачивает источник строк, применяя fn к каждому значению
func ConvertSource(src adapters.RowSource, columns []schema.FieldDef, fn ValueFunc) adapters.RowSource {
	return &convertingSource{src: src, columns: columns, fn: fn}
}

type convertingSource struct {
	src     adapters.RowSource
	columns []schema.FieldDef
	fn      ValueFunc
	buf     []any
}

func (c *convertingSource) Next() bool {
	return c.src.Next()
}

func (c *convertingSource) Values() ([]any, error) {
	vals, err := c.src.Values()
	if err != nil {
		return nil, err
	}
	if len(vals) != len(c.columns) {
		return nil, fmt.Errorf("row has %d values, expected %d columns", len(vals), len(c.columns))
	}
	if cap(c.buf) < len(vals) {
		c.buf = make([]any, len(vals))
	}
	c.buf = c.buf[:len(vals)]
	for i, v := range vals {
		cv, err := c.fn(v, c.columns[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.columns[i].Name, err)
		}
		c.buf[i] = cv
	}
	return c.buf, nil
}

func (c *convertingSource) Err() error {
	return c.src.Err()
}
