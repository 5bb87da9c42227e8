package jsmin

import (
	"unicode/utf8"
)

// UTF16Len returns the number of UTF-16 code units needed to encode the UTF-8 text in b. Invalid bytes count as one unit each.
func UTF16Len(b []byte) int {
	n := 0
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			n++
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if 0xFFFF < r {
			n += 2
		} else {
			n++
		}
		i += size
	}
	return n
}

// UTF16LastLine returns the number of line breaks in b and the UTF-16 length of the text following the last line break.
// It treats \n, \r, \r\n, U+2028 and U+2029 as line breaks.
func UTF16LastLine(b []byte) (int, int) {
	lines, start := 0, 0
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\n':
			lines++
			start = i + 1
		case '\r':
			if i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			lines++
			start = i + 1
		case 0xE2:
			if isLineSeparator(b[i:]) {
				i += 2
				lines++
				start = i + 1
			}
		}
	}
	return lines, UTF16Len(b[start:])
}

// isLineSeparator returns true if b starts with U+2028 or U+2029.
func isLineSeparator(b []byte) bool {
	return 2 < len(b) && b[0] == 0xE2 && b[1] == 0x80 && (b[2] == 0xA8 || b[2] == 0xA9)
}
