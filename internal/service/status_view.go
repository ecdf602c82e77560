package service

import (
	"time"

	"github.com/phrazzld/qforge/internal/domain"
)

// statusPreviewRunes is the length of the question text shown while polling.
const statusPreviewRunes = 200

// StatusView is what a client polling a request sees.
type StatusView struct {
	ID          int64                 `json:"id"`
	RequestID   string                `json:"requestId"`
	Status      domain.QuestionStatus `json:"status"`
	Preview     StatusPreview         `json:"preview"`
	Review      *ReviewSummary        `json:"review,omitempty"`
	ReviewError *string               `json:"reviewError,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// StatusPreview abbreviates the generated content.
type StatusPreview struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	HasOptions bool   `json:"hasOptions"`
}

// ReviewSummary is the part of a verdict shown while polling.
type ReviewSummary struct {
	Passed bool           `json:"passed"`
	Score  int            `json:"score"`
	Issues []domain.Issue `json:"issues"`
}

// NewStatusView builds the polling view of raw.
func NewStatusView(raw *domain.RawQuestion) *StatusView {
	v := &StatusView{
		ID:        raw.ID,
		RequestID: raw.RequestID,
		Status:    raw.Status,
		Preview: StatusPreview{
			Question:   domain.Truncate(raw.Content.Question, statusPreviewRunes),
			Answer:     raw.Content.Answer,
			HasOptions: raw.Content.HasOptions(),
		},
		ReviewError: raw.ReviewError,
		CreatedAt:   raw.CreatedAt,
		UpdatedAt:   raw.UpdatedAt,
	}
	if raw.Verdict != nil {
		issues := raw.Verdict.Issues
		if issues == nil {
			issues = []domain.Issue{}
		}
		v.Review = &ReviewSummary{
			Passed: raw.Verdict.Passed,
			Score:  raw.Verdict.OverallScore,
			Issues: issues,
		}
	}
	return v
}
