package domain

import (
	"unicode/utf8"
)

// ChoiceOptionLabels are the option keys every choice question must carry.
var ChoiceOptionLabels = []string{"A", "B", "C", "D"}

// Options maps an option label (A-D) to its text.
type Options map[string]string

// QuestionContent is the generation payload. It has two shapes: choice
// questions carry Options, blank and solution questions do not. The shape is
// enforced by Validate at the adapter boundary.
type QuestionContent struct {
	Question string  `json:"question"`
	Options  Options `json:"options,omitempty"`
	Answer   string  `json:"answer"`
	Solution string  `json:"solution"`
}

// Validate checks that the content has the fields required for qType.
func (c *QuestionContent) Validate(qType QuestionType) error {
	if c.Question == "" {
		return NewValidationError("question", "is required", ErrValidation)
	}
	if c.Answer == "" {
		return NewValidationError("answer", "is required", ErrValidation)
	}
	if c.Solution == "" {
		return NewValidationError("solution", "is required", ErrValidation)
	}

	if qType != QuestionTypeChoice {
		if len(c.Options) > 0 {
			return NewValidationError("options", "only allowed for choice questions", ErrValidation)
		}
		return nil
	}

	if len(c.Options) == 0 {
		return NewValidationError("options", "is required for choice questions", ErrValidation)
	}
	for _, label := range ChoiceOptionLabels {
		if c.Options[label] == "" {
			return NewValidationError("options", "missing option "+label, ErrValidation)
		}
	}
	return nil
}

// HasOptions reports whether the content is the choice shape.
func (c *QuestionContent) HasOptions() bool {
	return len(c.Options) > 0
}

// Truncate shortens s to at most n runes, appending "..." when it cut
// anything.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
