package lexer

import "unicode/utf8"

func decodeRuneUTF8(b []byte) (rune, int) {
	if len(b) == 0 {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(b)
}
