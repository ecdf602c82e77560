package generation

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/qforge/internal/domain"
)

// Models are loose about JSON types. The decoders below accept the shapes
// seen in practice and normalize them.

// flexText accepts a string, number or boolean and keeps its text form.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch x := v.(type) {
	case string:
		*f = flexText(strings.TrimSpace(x))
	case json.Number:
		*f = flexText(x.String())
	case bool:
		*f = flexText(strconv.FormatBool(x))
	default:
		*f = ""
	}
	return nil
}

var leadingInt = regexp.MustCompile(`^\s*[-+]?\d+`)

// flexScore accepts a number or numeric string, truncated toward zero and
// clamped to the score range. Anything else decodes as 0.
type flexScore int

func (f *flexScore) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case float64:
		*f = flexScore(clampFloatScore(x))
	case string:
		// On overflow ParseFloat returns ±Inf with ErrRange.
		n, err := strconv.ParseFloat(strings.TrimSpace(leadingInt.FindString(x)), 64)
		if err != nil && !math.IsInf(n, 0) {
			n = 0
		}
		*f = flexScore(clampFloatScore(n))
	default:
		*f = 0
	}
	return nil
}

// clampFloatScore truncates x and bounds it to the score range before the
// int conversion.
func clampFloatScore(x float64) int {
	if math.IsNaN(x) {
		return domain.MinScore
	}
	x = math.Max(domain.MinScore, math.Min(domain.MaxScore, math.Trunc(x)))
	return int(x)
}

// flexBool accepts a boolean, a boolean string or a number.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case bool:
		*f = flexBool(x)
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(x))
		*f = flexBool(err == nil && parsed)
	case float64:
		*f = flexBool(x != 0)
	default:
		*f = false
	}
	return nil
}

// flexIssue accepts an issue object or a bare description string.
type flexIssue struct {
	Type        flexText `json:"type"`
	Severity    flexText `json:"severity"`
	Description flexText `json:"description"`
}

func (f *flexIssue) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexIssue{Description: flexText(s)}
		return nil
	}

	type plain flexIssue
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		// Not an object either; keep nothing rather than fail the verdict.
		*f = flexIssue{}
		return nil
	}
	*f = flexIssue(p)
	return nil
}

// decodeList decodes raw as a JSON array of T. A missing or non-array value
// yields an empty list.
func decodeList[T any](raw json.RawMessage) []T {
	out := []T{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return out
	}
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
