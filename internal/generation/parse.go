package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/qforge/internal/domain"
)

type contentPayload struct {
	Question flexText        `json:"question"`
	Options  json.RawMessage `json:"options"`
	Answer   flexText        `json:"answer"`
	Solution flexText        `json:"solution"`
}

// ParseQuestionContent extracts and validates question content for qType
// from a model reply. Options are dropped unless qType is choice.
func ParseQuestionContent(text string, qType domain.QuestionType) (*domain.QuestionContent, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var p contentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	content := &domain.QuestionContent{
		Question: string(p.Question),
		Answer:   string(p.Answer),
		Solution: string(p.Solution),
	}
	if qType == domain.QuestionTypeChoice {
		content.Options = decodeOptions(p.Options)
	}

	if err := content.Validate(qType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return content, nil
}

// decodeOptions reads an options object, normalizing keys like "a" or
// " B " to upper-case labels. Anything that is not an object yields nil.
func decodeOptions(raw json.RawMessage) domain.Options {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var m map[string]flexText
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil
	}

	opts := make(domain.Options, len(m))
	for k, v := range m {
		key := strings.ToUpper(strings.TrimSpace(k))
		if key == "" || v == "" {
			continue
		}
		opts[key] = string(v)
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

type verdictPayload struct {
	Passed           *flexBool       `json:"passed"`
	OverallScore     *flexScore      `json:"overall_score"`
	LogicScore       flexScore       `json:"logic_score"`
	CalculationScore flexScore       `json:"calculation_score"`
	FormatScore      flexScore       `json:"format_score"`
	Issues           json.RawMessage `json:"issues"`
	Suggestions      json.RawMessage `json:"suggestions"`
	PositivePoints   json.RawMessage `json:"positive_points"`
}

// ParseVerdict extracts a verdict from a model reply and normalizes it.
// passed and overall_score are required.
func ParseVerdict(text string) (*domain.Verdict, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var p verdictPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if p.Passed == nil {
		return nil, fmt.Errorf("%w: missing field passed", ErrValidation)
	}
	if p.OverallScore == nil {
		return nil, fmt.Errorf("%w: missing field overall_score", ErrValidation)
	}

	v := &domain.Verdict{
		Passed:           bool(*p.Passed),
		OverallScore:     int(*p.OverallScore),
		LogicScore:       int(p.LogicScore),
		CalculationScore: int(p.CalculationScore),
		FormatScore:      int(p.FormatScore),
		Issues:           []domain.Issue{},
		Suggestions:      textList(p.Suggestions),
		PositivePoints:   textList(p.PositivePoints),
	}
	for _, is := range decodeList[flexIssue](p.Issues) {
		if is.Description == "" && is.Type == "" {
			continue
		}
		v.Issues = append(v.Issues, domain.Issue{
			Type:        string(is.Type),
			Severity:    string(is.Severity),
			Description: string(is.Description),
		})
	}

	v.Normalize()
	return v, nil
}

func textList(raw json.RawMessage) []string {
	items := decodeList[flexText](raw)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it != "" {
			out = append(out, string(it))
		}
	}
	return out
}
