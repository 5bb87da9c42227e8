package jsmin

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestUTF16Len(t *testing.T) {
	var tests = []struct {
		s string
		n int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"€", 1},
		{"𝄞", 2},
		{"a𝄞b", 4},
		{"\xff", 1},
		{"\xe2\x82", 2},
	}
	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			test.T(t, UTF16Len([]byte(tt.s)), tt.n)
		})
	}
}

func TestUTF16LastLine(t *testing.T) {
	var tests = []struct {
		s     string
		lines int
		col   int
	}{
		{"", 0, 0},
		{"abc", 0, 3},
		{"a\nbc", 1, 2},
		{"a\r\nbc", 1, 2},
		{"a\rbc", 1, 2},
		{"a\n\n", 2, 0},
		{"a\u2028𝄞", 1, 2},
		{"a\u2029b", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			lines, col := UTF16LastLine([]byte(tt.s))
			test.T(t, lines, tt.lines, "lines")
			test.T(t, col, tt.col, "column")
		})
	}
}
