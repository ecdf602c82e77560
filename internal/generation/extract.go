package generation

import (
	"encoding/json"
	"fmt"
)

// ExtractJSONObject returns the first balanced, well-formed JSON object found
// in text. Prose and code fences around the object are ignored, and braces
// inside JSON strings do not affect the balance.
func ExtractJSONObject(text string) ([]byte, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		candidate := []byte(text[start : end+1])
		if json.Valid(candidate) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON object in response", ErrParse)
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
