package api

import (
	"time"

	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/service"
)

// GenerateQuestionRequest defines the payload for POST /api/questions/generate.
type GenerateQuestionRequest struct {
	Type           string `json:"type"                   validate:"required,oneof=choice blank solution"`
	KnowledgePoint string `json:"knowledgePoint"         validate:"required,max=64"`
	Difficulty     int    `json:"difficulty"             validate:"required,min=1,max=5"`
	CustomPrompt   string `json:"customPrompt,omitempty" validate:"max=500"`
}

// GenerateQuestionResponse is returned for both scheduled and cached
// submissions. Preview is only set for cached ones.
type GenerateQuestionResponse struct {
	RequestID string         `json:"requestId"`
	Status    string         `json:"status"`
	Preview   *cache.Preview `json:"preview,omitempty"`
}

// ConfirmRequest defines the optional payload for POST /api/questions/{id}/confirm.
type ConfirmRequest struct {
	HumanFeedback *string `json:"humanFeedback,omitempty" validate:"omitempty,max=1000"`
}

// ConfirmResponse carries the ID of the promoted question.
type ConfirmResponse struct {
	QuestionID int64 `json:"questionId"`
}

// RejectRequest defines the payload for POST /api/questions/{id}/reject.
// Blank feedback is refused by the service with a dedicated error code.
type RejectRequest struct {
	HumanFeedback string `json:"humanFeedback" validate:"max=1000"`
}

// ReviewPendingRequest defines the optional payload for
// POST /api/questions/review-pending.
type ReviewPendingRequest struct {
	Limit int `json:"limit,omitempty" validate:"min=0,max=100"`
}

// RawQuestionResponse is the API view of a raw question.
type RawQuestionResponse struct {
	ID               int64                  `json:"id"`
	RequestID        string                 `json:"requestId"`
	Type             domain.QuestionType    `json:"type"`
	KnowledgePoint   string                 `json:"knowledgePoint"`
	Difficulty       int                    `json:"difficulty"`
	CustomPrompt     *string                `json:"customPrompt,omitempty"`
	Generation       domain.QuestionContent `json:"generation"`
	GenerationTokens int                    `json:"generationTokens"`
	GenerationCost   float64                `json:"generationCost"`
	Review           *domain.Verdict        `json:"review,omitempty"`
	ReviewTokens     *int                   `json:"reviewTokens,omitempty"`
	ReviewCost       *float64               `json:"reviewCost,omitempty"`
	ReviewError      *string                `json:"reviewError,omitempty"`
	Status           domain.QuestionStatus  `json:"status"`
	HumanFeedback    *string                `json:"humanFeedback,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// QuestionResponse is the API view of a promoted question.
type QuestionResponse struct {
	ID             int64               `json:"id"`
	RawQuestionID  int64               `json:"rawQuestionId"`
	Type           domain.QuestionType `json:"type"`
	KnowledgePoint string              `json:"knowledgePoint"`
	Difficulty     int                 `json:"difficulty"`
	Question       string              `json:"question"`
	Options        domain.Options      `json:"options,omitempty"`
	Answer         string              `json:"answer"`
	Solution       string              `json:"solution"`
	QualityScore   *int                `json:"qualityScore,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// PageResponse is one page of a listing.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"totalPages"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func rawQuestionToResponse(raw *domain.RawQuestion) RawQuestionResponse {
	return RawQuestionResponse{
		ID:               raw.ID,
		RequestID:        raw.RequestID,
		Type:             raw.Type,
		KnowledgePoint:   raw.KnowledgePoint,
		Difficulty:       raw.Difficulty,
		CustomPrompt:     raw.CustomPrompt,
		Generation:       raw.Content,
		GenerationTokens: raw.GenerationTokens,
		GenerationCost:   raw.GenerationCost,
		Review:           raw.Verdict,
		ReviewTokens:     raw.ReviewTokens,
		ReviewCost:       raw.ReviewCost,
		ReviewError:      raw.ReviewError,
		Status:           raw.Status,
		HumanFeedback:    raw.HumanFeedback,
		CreatedAt:        raw.CreatedAt,
		UpdatedAt:        raw.UpdatedAt,
	}
}

func questionToResponse(q *domain.Question) QuestionResponse {
	return QuestionResponse{
		ID:             q.ID,
		RawQuestionID:  q.RawQuestionID,
		Type:           q.Type,
		KnowledgePoint: q.KnowledgePoint,
		Difficulty:     q.Difficulty,
		Question:       q.QuestionText,
		Options:        q.Options,
		Answer:         q.CorrectAnswer,
		Solution:       q.Solution,
		QualityScore:   q.QualityScore,
		CreatedAt:      q.CreatedAt,
	}
}

// pageToResponse converts a service page, mapping each item with conv.
func pageToResponse[S, T any](p *service.Page[S], conv func(S) T) PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, conv(item))
	}
	return PageResponse[T]{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		Size:       p.Size,
		TotalPages: p.TotalPages,
	}
}
