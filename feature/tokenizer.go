package feature

import (
	"strings"
	"unicode"
)

// Tokenize 把文本切分为小写词：连续的字母/数字/下划线，长度至少 2。
// 停用词在 stopWords 非空时被剔除。
func Tokenize(text string, stopWords map[string]struct{}) []string {
	text = strings.ToLower(text)
	tokens := make([]string, 0, 16)

	start := -1
	runes := 0
	flush := func(end int) {
		if start < 0 {
			return
		}
		if runes >= 2 {
			tok := text[start:end]
			if _, stop := stopWords[tok]; !stop {
				tokens = append(tokens, tok)
			}
		}
		start, runes = -1, 0
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
