// Package rowversion provides the RowVersion type: an 8-byte, monotonically
// increasing row stamp (MS SQL rowversion/timestamp, binary(8) elsewhere)
// exposed as an ordered uint64.
package rowversion

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Size is the length of the wire representation in bytes.
const Size = 8

// RowVersion is a row stamp. Values compare like the server compares them.
type RowVersion uint64

// FromBytes decodes a big-endian 8-byte value. Shorter input is left-padded
// with zeros, which matches how MS SQL converts binary(n<8) to rowversion.
func FromBytes(b []byte) (RowVersion, error) {
	if len(b) > Size {
		return 0, fmt.Errorf("rowversion: expected at most %d bytes, got %d", Size, len(b))
	}
	var buf [Size]byte
	copy(buf[Size-len(b):], b)
	return RowVersion(binary.BigEndian.Uint64(buf[:])), nil
}

// Bytes returns the big-endian 8-byte representation.
func (v RowVersion) Bytes() []byte {
	b := make([]byte, Size)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// String formats the value the way SSMS shows it: 0x followed by 16 hex digits.
func (v RowVersion) String() string {
	return fmt.Sprintf("0x%016X", uint64(v))
}

// Value implements driver.Valuer.
func (v RowVersion) Value() (driver.Value, error) {
	return v.Bytes(), nil
}

// Scan implements sql.Scanner. Besides raw bytes it accepts integers, which
// is what PostgreSQL returns for xid8 snapshot values, and 0x-prefixed hex.
func (v *RowVersion) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = 0
		return nil
	case []byte:
		rv, err := FromBytes(s)
		if err != nil {
			return err
		}
		*v = rv
		return nil
	case int64:
		if s < 0 {
			return fmt.Errorf("rowversion: negative value %d", s)
		}
		*v = RowVersion(s)
		return nil
	case string:
		return v.parseString(s)
	default:
		return fmt.Errorf("rowversion: cannot scan %T", src)
	}
}

func (v *RowVersion) parseString(s string) error {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return fmt.Errorf("rowversion: invalid hex %q: %w", s, err)
		}
		rv, err := FromBytes(b)
		if err != nil {
			return err
		}
		*v = rv
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("rowversion: invalid value %q: %w", s, err)
	}
	*v = RowVersion(n)
	return nil
}
