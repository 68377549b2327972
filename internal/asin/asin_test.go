// file: internal/asin/asin_test.go
// version: 1.0.0
// guid: 8c2d4e6f-1a3b-4c5d-8e9f-0a1b2c3d4e5f

package asin

import "testing"

func TestValid(t *testing.T) {
	valid := []string{
		"B0041JKFJW",
		"b0041jkfjw", // case-insensitive
		"B00ZVA3XL6",
		"  B0041JKFJW  ", // surrounding whitespace tolerated
	}
	for _, s := range valid {
		if !Valid(s) {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"",
		"B0041JKFJ",     // too short
		"B0041JKFJW1",   // too long
		"A0041JKFJW",    // wrong prefix
		"0593135202",    // ISBN-10, all digits
		"9780593135204", // ISBN-13
		"B0041JKF-W",    // punctuation
		"Mistborn",
	}
	for _, s := range invalid {
		if Valid(s) {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" b0041jkfjw "); got != "B0041JKFJW" {
		t.Errorf("Normalize() = %q, want B0041JKFJW", got)
	}
}
