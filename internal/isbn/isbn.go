// Package isbn canonicalizes and checksum-validates ISBN-10 and ISBN-13
// identifiers.
package isbn

import "strings"

// Canonicalize strips separators and spaces from an ISBN and uppercases the
// ISBN-10 check character, leaving digits (and a possible trailing X) only.
func Canonicalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// Valid reports whether the canonicalized form of raw passes the ISBN-10 or
// ISBN-13 checksum.
func Valid(raw string) bool {
	isbn := Canonicalize(raw)
	switch len(isbn) {
	case 10:
		return validISBN10(isbn)
	case 13:
		return validISBN13(isbn)
	default:
		return false
	}
}

// validISBN10 checks the weighted-sum-mod-11 rule. The check character may
// be 'X' (value 10); 'X' anywhere else invalidates the number.
func validISBN10(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case r == 'X' && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

// validISBN13 checks the alternating 1/3-weight-mod-10 rule.
func validISBN13(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		if r < '0' || r > '9' {
			return false
		}
		v := int(r - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}
