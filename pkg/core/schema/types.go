package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType представляет абстрактный тип колонки
// Каждый адаптер отображает его в собственный SQL тип
type DataType string

// Поддерживаемые типы данных
const (
	TypeInteger   DataType = "INTEGER"
	TypeInt       DataType = "INT"
	TypeReal      DataType = "REAL"
	TypeFloat     DataType = "FLOAT"
	TypeDouble    DataType = "DOUBLE"
	TypeDecimal   DataType = "DECIMAL"
	TypeText      DataType = "TEXT"
	TypeVarchar   DataType = "VARCHAR"
	TypeChar      DataType = "CHAR"
	TypeString    DataType = "STRING"
	TypeBoolean   DataType = "BOOLEAN"
	TypeBool      DataType = "BOOL"
	TypeDate      DataType = "DATE"
	TypeDatetime  DataType = "DATETIME"
	TypeTimestamp DataType = "TIMESTAMP"
	TypeBlob      DataType = "BLOB"
	TypeUUID      DataType = "UUID"
)

// Subtype уточняет тип там, где абстрактного типа недостаточно
const (
	SubtypeRowVersion = "rowversion"
	SubtypeSmallInt   = "smallint"
	SubtypeInt        = "int"
	SubtypeBigInt     = "bigint"
	SubtypeTinyInt    = "tinyint"
	SubtypeFloat32    = "real"
)

// FieldDef описывает одну колонку: имя, тип, nullability, участие в ключе
type FieldDef struct {
	Name      string
	Type      DataType
	Subtype   string
	SQLType   string // явный SQL тип, имеет приоритет над маппингом адаптера
	Length    int
	Precision int
	Scale     int
	Key       bool
	Nullable  bool
}

// IsRowVersion сообщает, что колонка хранит версию строки
func (f FieldDef) IsRowVersion() bool {
	return f.Subtype == SubtypeRowVersion
}

// ValidationError ошибка валидации
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: '%s')",
		e.Field, e.Message, e.Value)
}

// IsNumericType проверяет является ли тип числовым
func IsNumericType(t DataType) bool {
	switch t {
	case TypeInteger, TypeInt, TypeReal, TypeFloat, TypeDouble, TypeDecimal:
		return true
	default:
		return false
	}
}

// IsTextType проверяет является ли тип текстовым
func IsTextType(t DataType) bool {
	switch t {
	case TypeText, TypeVarchar, TypeChar, TypeString:
		return true
	default:
		return false
	}
}

// IsDateTimeType проверяет является ли тип временным
func IsDateTimeType(t DataType) bool {
	switch t {
	case TypeDate, TypeDatetime, TypeTimestamp:
		return true
	default:
		return false
	}
}

// NormalizeType нормализует синонимы типов
func NormalizeType(t DataType) DataType {
	switch DataType(strings.ToUpper(string(t))) {
	case TypeInteger, TypeInt:
		return TypeInteger
	case TypeReal, TypeFloat, TypeDouble:
		return TypeReal
	case TypeText, TypeVarchar, TypeChar, TypeString:
		return TypeText
	case TypeBoolean, TypeBool:
		return TypeBoolean
	default:
		return DataType(strings.ToUpper(string(t)))
	}
}

// IsValidType проверяет валидность типа данных
func IsValidType(t DataType) bool {
	switch NormalizeType(t) {
	case TypeInteger, TypeReal, TypeDecimal, TypeText,
		TypeBoolean, TypeDate, TypeDatetime, TypeTimestamp, TypeBlob, TypeUUID:
		return true
	default:
		return false
	}
}

// GetDefaultPrecision возвращает точность по умолчанию для DECIMAL
func GetDefaultPrecision() int {
	return 18
}

// GetDefaultScale возвращает масштаб по умолчанию для DECIMAL
func GetDefaultScale() int {
	return 2
}

// ParseDataType разбирает описание вида "TEXT(100)", "DECIMAL(18,4)", "integer"
// Используется CLI и тегами `precision:"18,4"`
func ParseDataType(s string) (FieldDef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FieldDef{}, fmt.Errorf("empty data type")
	}

	var field FieldDef
	base := s
	var params []string

	if open := strings.Index(s, "("); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return FieldDef{}, fmt.Errorf("invalid data type %q: missing ')'", s)
		}
		base = s[:open]
		params = strings.Split(s[open+1:len(s)-1], ",")
	}

	field.Type = NormalizeType(DataType(strings.TrimSpace(base)))
	if !IsValidType(field.Type) {
		return FieldDef{}, fmt.Errorf("unsupported data type %q", base)
	}

	nums := make([]int, 0, len(params))
	for _, p := range params {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return FieldDef{}, fmt.Errorf("invalid data type %q: %w", s, err)
		}
		nums = append(nums, n)
	}

	switch {
	case len(nums) == 0:
	case field.Type == TypeDecimal:
		field.Precision = nums[0]
		if len(nums) > 1 {
			field.Scale = nums[1]
		}
	case len(nums) == 1:
		field.Length = nums[0]
	default:
		return FieldDef{}, fmt.Errorf("invalid data type %q: too many parameters", s)
	}

	return field, nil
}
