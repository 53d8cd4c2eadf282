package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Base selects how manually entered bytes are parsed and printed
type Base string

const (
	BaseHex Base = "hex"
	BaseDec Base = "dec"
)

// ErrInvalidByte is returned when a manually entered byte is not a number
// in 0..255
var ErrInvalidByte = errors.New("invalid MIDI message: each value must be between 0 and 255")

// ParseBase maps a user supplied base name, defaulting to hex
func ParseBase(s string) Base {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dec", "decimal", "10":
		return BaseDec
	default:
		return BaseHex
	}
}

// ParseByte parses one manually entered value. Hex values may carry a 0x
// prefix. Values outside 0..255 are rejected, never truncated.
func ParseByte(s string, base Base) (byte, error) {
	s = strings.TrimSpace(s)
	radix := 10
	if base == BaseHex {
		radix = 16
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidByte)
	}
	v, err := strconv.ParseInt(s, radix, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidByte, s)
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidByte, v)
	}
	return byte(v), nil
}

// ParseRaw parses a manually entered triplet. Any invalid byte rejects
// the whole message.
func ParseRaw(values []string, base Base) (Message, error) {
	if len(values) != 3 {
		return Message{}, fmt.Errorf("%w: expected 3 values, got %d", ErrInvalidByte, len(values))
	}
	raw := make([]byte, 3)
	for i, v := range values {
		b, err := ParseByte(v, base)
		if err != nil {
			return Message{}, fmt.Errorf("byte %d: %w", i, err)
		}
		raw[i] = b
	}
	return FromRaw(raw), nil
}

// FormatByte prints a byte in the given base
func FormatByte(b byte, base Base) string {
	if base == BaseHex {
		return fmt.Sprintf("0x%02X", b)
	}
	return strconv.Itoa(int(b))
}

// FormatBytes prints a message as [a, b, c]
func FormatBytes(raw []byte, base Base) string {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = FormatByte(b, base)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
