package isbn

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hyphenated isbn13", "978-0-13-595705-9", "9780135957059"},
		{"spaces", "0 306 40615 2", "0306406152"},
		{"lowercase check char", "080442957x", "080442957X"},
		{"already clean", "9780135957059", "9780135957059"},
		{"garbage stripped", "ISBN: 978-0135957059", "9780135957059"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid isbn13", "9780135957059", true},
		{"valid isbn13 hyphenated", "978-0-306-40615-7", true},
		{"valid isbn10", "0306406152", true},
		{"valid isbn10 with X check", "080442957X", true},
		{"isbn13 bad check digit", "9780135957058", false},
		{"isbn10 bad check digit", "0306406153", false},
		{"X in wrong position", "0X06406152", false},
		{"too short", "12345", false},
		{"empty", "", false},
		{"letters only", "notanisbn", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.in))
		})
	}
}
