package base

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// UniqueSuffix возвращает токен уникальности: 32 hex символа без дефисов
func UniqueSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// UniqueName добавляет к base токен уникальности: "<base>_<32hex>"
func UniqueName(base string) string {
	return base + "_" + UniqueSuffix()
}

// ShortenName укорачивает имя до max символов
// Хвост заменяется xxh3 хешем полного имени, поэтому разные длинные имена
// остаются разными после усечения
func ShortenName(name string, max int) string {
	if max <= 0 || len(name) <= max {
		return name
	}
	hash := fmt.Sprintf("%016x", xxh3.HashString(name))
	if max <= len(hash)+1 {
		return hash[:max]
	}
	return name[:max-len(hash)-1] + "_" + hash
}
