package domain

import (
	"time"
	"unicode/utf8"
)

// QuestionType is the shape of question requested from the generator.
type QuestionType string

// Supported question types. Only choice questions carry options.
const (
	QuestionTypeChoice   QuestionType = "choice"
	QuestionTypeBlank    QuestionType = "blank"
	QuestionTypeSolution QuestionType = "solution"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeChoice, QuestionTypeBlank, QuestionTypeSolution:
		return true
	default:
		return false
	}
}

// Label returns a human readable name used in prompts.
func (t QuestionType) Label() string {
	switch t {
	case QuestionTypeChoice:
		return "multiple-choice"
	case QuestionTypeBlank:
		return "fill-in-the-blank"
	case QuestionTypeSolution:
		return "worked-solution"
	default:
		return "unknown"
	}
}

// QuestionStatus is the lifecycle state of a RawQuestion.
type QuestionStatus string

// Lifecycle states. A raw question starts at auto_pass the moment generation
// succeeds; confirmed and human_reject are terminal.
const (
	StatusAutoPass    QuestionStatus = "auto_pass"
	StatusAIReject    QuestionStatus = "ai_reject"
	StatusConfirmed   QuestionStatus = "confirmed"
	StatusHumanReject QuestionStatus = "human_reject"
)

// Valid reports whether s is a known status.
func (s QuestionStatus) Valid() bool {
	switch s {
	case StatusAutoPass, StatusAIReject, StatusConfirmed, StatusHumanReject:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s QuestionStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusHumanReject
}

// Difficulty bounds.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// RawQuestion is the mutable unit of work produced by the pipeline. It is
// created only after a successful generation and is never deleted.
type RawQuestion struct {
	ID               int64           `json:"id"`
	RequestID        string          `json:"request_id"`
	Type             QuestionType    `json:"type"`
	KnowledgePoint   string          `json:"knowledge_point"`
	Difficulty       int             `json:"difficulty"`
	CustomPrompt     *string         `json:"custom_prompt,omitempty"`
	Content          QuestionContent `json:"generation"`
	GenerationTokens int             `json:"generation_tokens"`
	GenerationCost   float64         `json:"generation_cost"`
	Verdict          *Verdict        `json:"review,omitempty"`
	ReviewTokens     *int            `json:"review_tokens,omitempty"`
	ReviewCost       *float64        `json:"review_cost,omitempty"`
	ReviewError      *string         `json:"review_error,omitempty"`
	Status           QuestionStatus  `json:"status"`
	HumanFeedback    *string         `json:"human_feedback,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewRawQuestion builds a RawQuestion in the auto_pass state from freshly
// generated content. The store assigns the numeric ID.
func NewRawQuestion(
	requestID string,
	qType QuestionType,
	knowledgePoint string,
	difficulty int,
	customPrompt string,
	content QuestionContent,
) (*RawQuestion, error) {
	now := time.Now().UTC()
	q := &RawQuestion{
		RequestID:      requestID,
		Type:           qType,
		KnowledgePoint: knowledgePoint,
		Difficulty:     difficulty,
		Content:        content,
		Status:         StatusAutoPass,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if customPrompt != "" {
		q.CustomPrompt = &customPrompt
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks the RawQuestion invariants that can be checked locally.
func (q *RawQuestion) Validate() error {
	if q.RequestID == "" {
		return NewValidationError("request_id", "cannot be empty", ErrValidation)
	}
	if !q.Type.Valid() {
		return NewValidationError("type", "must be choice, blank or solution", ErrInvalidQuestionType)
	}
	if q.KnowledgePoint == "" || utf8.RuneCountInString(q.KnowledgePoint) > 64 {
		return NewValidationError("knowledge_point", "must be 1-64 characters", ErrValidation)
	}
	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return NewValidationError("difficulty", "must be between 1 and 5", ErrInvalidDifficulty)
	}
	if !q.Status.Valid() {
		return NewValidationError("status", "is not a known status", ErrInvalidStatus)
	}
	return q.Content.Validate(q.Type)
}

// Question is a human-approved question promoted from a RawQuestion.
// It is created exactly once by the confirm transition and never modified.
type Question struct {
	ID             int64        `json:"id"`
	RawQuestionID  int64        `json:"raw_question_id"`
	Type           QuestionType `json:"type"`
	KnowledgePoint string       `json:"knowledge_point"`
	Difficulty     int          `json:"difficulty"`
	QuestionText   string       `json:"question_text"`
	Options        Options      `json:"options,omitempty"`
	CorrectAnswer  string       `json:"correct_answer"`
	Solution       string       `json:"solution"`
	QualityScore   *int         `json:"quality_score,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// PromoteQuestion derives the canonical Question from a raw question. The
// fields mirror the stored generation content.
func PromoteQuestion(raw *RawQuestion) *Question {
	q := &Question{
		RawQuestionID:  raw.ID,
		Type:           raw.Type,
		KnowledgePoint: raw.KnowledgePoint,
		Difficulty:     raw.Difficulty,
		QuestionText:   raw.Content.Question,
		Options:        raw.Content.Options,
		CorrectAnswer:  raw.Content.Answer,
		Solution:       raw.Content.Solution,
		CreatedAt:      time.Now().UTC(),
	}
	if raw.Verdict != nil {
		score := raw.Verdict.OverallScore
		q.QualityScore = &score
	}
	return q
}
