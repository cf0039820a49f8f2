// Package phone formats phone input as the user types.
//
// The mask is the Brazilian mobile layout "(DD) DDDDD-DDDD": a two digit area
// code, a five digit prefix and a four digit line. Formatting is a display
// transform only; length checks belong to the registration validator.
package phone

import "strings"

// MaxLen is the length of a fully masked number, e.g. "(11) 98765-4321".
const MaxLen = 15

// MaxDigits is the number of digits a fully masked number holds.
const MaxDigits = 11

const (
	areaDigits   = 2
	prefixDigits = 5
)

// Digits returns the ASCII digits of s in order, dropping everything else.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// Format strips every non-digit from raw and applies the mask.
//
// Fewer than three digits are returned bare. From the third digit on, the
// area code is wrapped as "(DD) ". A hyphen follows the fifth digit after the
// area code once a sixth one exists. The result never exceeds MaxLen.
//
// Format is idempotent: mask characters are not digits, so formatting a
// formatted value extracts the same digits again.
func Format(raw string) string {
	d := Digits(raw)
	if len(d) <= areaDigits {
		return d
	}

	var b strings.Builder
	b.Grow(MaxLen)
	b.WriteByte('(')
	b.WriteString(d[:areaDigits])
	b.WriteString(") ")

	rest := d[areaDigits:]
	if len(rest) <= prefixDigits {
		b.WriteString(rest)
	} else {
		b.WriteString(rest[:prefixDigits])
		b.WriteByte('-')
		b.WriteString(rest[prefixDigits:])
	}

	out := b.String()
	if len(out) > MaxLen {
		out = out[:MaxLen]
	}
	return out
}

// Complete reports whether s holds a full number once masked.
func Complete(s string) bool {
	return len(Format(s)) == MaxLen
}
