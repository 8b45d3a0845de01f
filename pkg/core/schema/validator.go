package schema

import (
	"fmt"
	"strings"
)

// ValidateColumns проверяет корректность списка колонок перед генерацией DDL
func ValidateColumns(fields []FieldDef) error {
	if len(fields) == 0 {
		return fmt.Errorf("schema must have at least one field")
	}

	fieldNames := make(map[string]bool, len(fields))

	for i, field := range fields {
		// Проверка имени поля
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("field at index %d has empty name", i)
		}

		// Имена колонок сравниваем без учета регистра: MS SQL и MySQL так и делают
		lower := strings.ToLower(field.Name)
		if fieldNames[lower] {
			return fmt.Errorf("duplicate field name: %s", field.Name)
		}
		fieldNames[lower] = true

		// Явный SQL тип не проверяем - за него отвечает вызывающий
		if field.SQLType != "" {
			continue
		}

		if !IsValidType(field.Type) {
			return fmt.Errorf("invalid type '%s' for field '%s'", field.Type, field.Name)
		}

		if NormalizeType(field.Type) == TypeDecimal {
			precision := field.Precision
			if precision == 0 {
				precision = GetDefaultPrecision()
			}
			if precision <= 0 || precision > 38 {
				return fmt.Errorf("field '%s' DECIMAL precision must be between 1 and 38", field.Name)
			}
			if field.Scale < 0 || field.Scale > precision {
				return fmt.Errorf("field '%s' DECIMAL scale must be between 0 and precision", field.Name)
			}
		}

		if field.Key && field.Nullable {
			return fmt.Errorf("key field '%s' cannot be nullable", field.Name)
		}
	}

	return nil
}

// KeyFields возвращает ключевые поля в порядке объявления
func KeyFields(fields []FieldDef) []FieldDef {
	var keys []FieldDef
	for _, field := range fields {
		if field.Key {
			keys = append(keys, field)
		}
	}
	return keys
}
