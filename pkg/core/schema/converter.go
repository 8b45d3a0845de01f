package schema

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Converter превращает текстовые значения (CSV, XLSX) в типизированные Go значения
type Converter struct{}

// NewConverter создает новый конвертер
func NewConverter() *Converter {
	return &Converter{}
}

// ParseValue парсит строковое значение согласно типу поля
// Возвращает int64, float64, string, bool, time.Time, []byte или nil (NULL)
func (c *Converter) ParseValue(rawValue string, field FieldDef) (any, error) {
	normalized := NormalizeType(field.Type)

	// ВАЖНО: Для TEXT пустая строка "" - валидное значение, НЕ NULL!
	if rawValue == "" {
		if normalized == TypeText {
			return c.parseText(rawValue, field)
		}

		// Для остальных типов (INTEGER, TIMESTAMP, etc.) пустая строка = NULL
		if !field.Nullable {
			return nil, &ValidationError{
				Field:   field.Name,
				Message: "field is not nullable",
				Value:   rawValue,
			}
		}
		return nil, nil
	}

	switch normalized {
	case TypeInteger:
		val, err := strconv.ParseInt(strings.TrimSpace(rawValue), 10, 64)
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Message: "invalid integer value", Value: rawValue}
		}
		return val, nil
	case TypeReal:
		val, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Message: "invalid float value", Value: rawValue}
		}
		return val, nil
	case TypeDecimal:
		return c.parseDecimal(rawValue, field)
	case TypeText:
		return c.parseText(rawValue, field)
	case TypeBoolean:
		return c.parseBoolean(rawValue, field)
	case TypeDate:
		return c.parseDate(rawValue, field)
	case TypeDatetime, TypeTimestamp:
		val, err := time.Parse(time.RFC3339, rawValue)
		if err != nil {
			val, err = time.Parse("2006-01-02 15:04:05", rawValue)
		}
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Message: "invalid datetime format, expected RFC3339", Value: rawValue}
		}
		return val, nil
	case TypeBlob:
		val, err := base64.StdEncoding.DecodeString(rawValue)
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Message: "invalid base64 encoding", Value: rawValue}
		}
		return val, nil
	case TypeUUID:
		val, err := uuid.Parse(rawValue)
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Message: "invalid uuid", Value: rawValue}
		}
		return val.String(), nil
	default:
		return nil, &ValidationError{
			Field:   field.Name,
			Message: fmt.Sprintf("unsupported type: %s", field.Type),
			Value:   rawValue,
		}
	}
}

// parseDecimal парсит DECIMAL с проверкой precision/scale
// Значение остается строкой: драйверы сами приводят текст к NUMERIC без потери точности
func (c *Converter) parseDecimal(raw string, field FieldDef) (any, error) {
	raw = strings.TrimSpace(raw)
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return nil, &ValidationError{Field: field.Name, Message: "invalid decimal value", Value: raw}
	}

	precision := field.Precision
	if precision == 0 {
		precision = GetDefaultPrecision()
	}
	scale := field.Scale
	if field.Precision == 0 && scale == 0 {
		scale = GetDefaultScale()
	}

	parts := strings.SplitN(strings.TrimLeft(raw, "+-"), ".", 2)
	totalDigits := len(parts[0])
	if len(parts) > 1 {
		totalDigits += len(parts[1])
		if len(parts[1]) > scale {
			return nil, &ValidationError{
				Field:   field.Name,
				Message: fmt.Sprintf("decimal scale exceeds %d", scale),
				Value:   raw,
			}
		}
	}

	if totalDigits > precision {
		return nil, &ValidationError{
			Field:   field.Name,
			Message: fmt.Sprintf("decimal precision exceeds %d", precision),
			Value:   raw,
		}
	}

	return raw, nil
}

// parseText проверяет длину (в символах Unicode, а не байтах)
func (c *Converter) parseText(raw string, field FieldDef) (any, error) {
	if field.Length > 0 && utf8.RuneCountInString(raw) > field.Length {
		return nil, &ValidationError{
			Field:   field.Name,
			Message: fmt.Sprintf("text length exceeds %d", field.Length),
			Value:   raw,
		}
	}
	return raw, nil
}

func (c *Converter) parseBoolean(raw string, field FieldDef) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	default:
		return nil, &ValidationError{
			Field:   field.Name,
			Message: "boolean must be 0/1 or true/false",
			Value:   raw,
		}
	}
}

// parseDate парсит DATE (YYYY-MM-DD или ISO8601 с временной частью)
func (c *Converter) parseDate(raw string, field FieldDef) (any, error) {
	val, err := time.Parse("2006-01-02", raw)
	if err != nil {
		val, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, &ValidationError{
				Field:   field.Name,
				Message: "invalid date format, expected YYYY-MM-DD",
				Value:   raw,
			}
		}
		// Отбрасываем временную часть - сохраняем только дату
		val = time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC)
	}
	return val, nil
}
