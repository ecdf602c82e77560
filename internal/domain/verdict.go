package domain

// PassThreshold is the minimum overall score a passing verdict may carry.
const PassThreshold = 70

// Score bounds for every verdict dimension.
const (
	MinScore = 0
	MaxScore = 100
)

// Issue categories and severities emitted by the reviewer.
const (
	IssueTypeLogic       = "logic"
	IssueTypeCalculation = "calculation"
	IssueTypeFormat      = "format"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Issue is a single problem the reviewer found.
type Issue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Verdict is the structured review of a question.
type Verdict struct {
	Passed           bool     `json:"passed"`
	OverallScore     int      `json:"overall_score"`
	LogicScore       int      `json:"logic_score"`
	CalculationScore int      `json:"calculation_score"`
	FormatScore      int      `json:"format_score"`
	Issues           []Issue  `json:"issues"`
	Suggestions      []string `json:"suggestions"`
	PositivePoints   []string `json:"positive_points"`
}

// Normalize enforces the verdict invariants in place: scores are clamped to
// [0,100], nil lists become empty, and a passing verdict below PassThreshold
// is downgraded with a synthetic high severity logic issue.
func (v *Verdict) Normalize() {
	v.OverallScore = ClampScore(v.OverallScore)
	v.LogicScore = ClampScore(v.LogicScore)
	v.CalculationScore = ClampScore(v.CalculationScore)
	v.FormatScore = ClampScore(v.FormatScore)

	if v.Issues == nil {
		v.Issues = []Issue{}
	}
	if v.Suggestions == nil {
		v.Suggestions = []string{}
	}
	if v.PositivePoints == nil {
		v.PositivePoints = []string{}
	}

	if v.Passed && v.OverallScore < PassThreshold {
		v.Passed = false
		v.Issues = append(v.Issues, Issue{
			Type:        IssueTypeLogic,
			Severity:    SeverityHigh,
			Description: "overall score is below the pass threshold",
		})
	}
}

// ClampScore bounds s to [MinScore, MaxScore].
func ClampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// StatusForVerdict is the raw question status implied by a review outcome.
func StatusForVerdict(v *Verdict) QuestionStatus {
	if v != nil && v.Passed {
		return StatusAutoPass
	}
	return StatusAIReject
}
