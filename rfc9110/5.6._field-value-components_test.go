package rfc9110

import (
	"testing"
)

func TestTokenLength(t *testing.T) {
	if l := TokenLength("bytes=1-2", 0); l != 5 {
		t.Fatalf("Token length is %d", l)
	}
	if l := TokenLength("=bytes", 0); l != 0 {
		t.Fatalf("Token length is %d", l)
	}
	if l := TokenLength("bytes", 5); l != 0 {
		t.Fatalf("Token length past the end is %d", l)
	}
}

func TestNumberLength(t *testing.T) {
	tests := []struct {
		input        string
		allowDecimal bool
		length       int
	}{
		{"123-", false, 3},
		{"12.5x", true, 4},
		{"12.5x", false, 2},
		{"1.", true, 2},
		{".5", true, 0},
		{"1.2.3", true, 3},
		{"-1", false, 0},
		{"", false, 0},
	}
	for _, test := range tests {
		if l := NumberLength(test.input, 0, test.allowDecimal); l != test.length {
			t.Fatalf("Number length of %q is %d, expected %d", test.input, l, test.length)
		}
	}
}

func TestWhitespaceLength(t *testing.T) {
	if l := WhitespaceLength(" \t\r\n x", 0); l != 5 {
		t.Fatalf("Whitespace length with folding is %d", l)
	}
	if l := WhitespaceLength("\r\nx", 0); l != 0 {
		t.Fatalf("Bare CRLF is whitespace of length %d", l)
	}
	if l := WhitespaceLength("a  b", 1); l != 2 {
		t.Fatalf("Whitespace length is %d", l)
	}
}

func TestQuotedStringLength(t *testing.T) {
	tests := []struct {
		input  string
		result ParseResult
		length int
	}{
		{`"abc" rest`, Parsed, 5},
		{`"a\"b"`, Parsed, 6},
		{`""`, Parsed, 2},
		{`"abc`, InvalidFormat, 0},
		{`"ab\`, InvalidFormat, 0},
		{`abc`, NotParsed, 0},
		{``, NotParsed, 0},
	}
	for _, test := range tests {
		result, length := QuotedStringLength(test.input, 0)
		if result != test.result || length != test.length {
			t.Fatalf("Quoted string %q is %s with length %d", test.input, result, length)
		}
	}
}

func TestQuotedPairLength(t *testing.T) {
	if result, length := QuotedPairLength(`\a`, 0); result != Parsed || length != 2 {
		t.Fatalf("Quoted pair is %s with length %d", result, length)
	}
	if result, _ := QuotedPairLength(`\`, 0); result != InvalidFormat {
		t.Fatalf("Lone backslash is %s", result)
	}
	if result, _ := QuotedPairLength(`a`, 0); result != NotParsed {
		t.Fatalf("Non-pair is %s", result)
	}
}

func TestNextListItemIndex(t *testing.T) {
	input := `a , , ,b`
	if next, found := nextListItemIndex(input, 1, true); next != 7 || !found {
		t.Fatalf("Next item at %d, separator %v", next, found)
	}
	if next, found := nextListItemIndex(input, 1, false); next != 4 || !found {
		t.Fatalf("Next item without skipping at %d, separator %v", next, found)
	}
	if next, found := nextListItemIndex("a  ", 1, true); next != 3 || found {
		t.Fatalf("Next item at end is %d, separator %v", next, found)
	}
}
