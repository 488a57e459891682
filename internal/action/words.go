package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

var (
	errUnterminatedQuote = errors.New("unterminated quote")
	errDanglingEscape    = errors.New("dangling escape")
)

// SplitWords splits s into shell words: whitespace separates words, single
// quotes are literal, double quotes and a bare backslash escape the next rune,
// and an unquoted # at the start of a word begins a comment.
func SplitWords(s string) ([]string, error) {
	words, err := shlex.Split(s)
	if err != nil {
		if strings.Contains(err.Error(), "escape") {
			return nil, fmt.Errorf("%w: %v", errDanglingEscape, err)
		}
		return nil, fmt.Errorf("%w: %v", errUnterminatedQuote, err)
	}
	return words, nil
}

// unquoteValue strips one level of matching quotes from a whole parameter value.
// Values that are not wholly quoted are returned verbatim.
func unquoteValue(v string) (string, error) {
	if len(v) < 2 {
		return v, nil
	}
	first, last := v[0], v[len(v)-1]
	if (first != '"' && first != '\'') || first != last {
		return v, nil
	}
	words, err := SplitWords(v)
	if err != nil {
		return "", err
	}
	if len(words) != 1 {
		return v, nil
	}
	return words[0], nil
}
