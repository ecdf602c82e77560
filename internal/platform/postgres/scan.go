package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/qforge/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const rawQuestionColumns = `id, request_id, type, knowledge_point, difficulty, custom_prompt,
		generation, generation_tokens, generation_cost,
		review, review_tokens, review_cost, review_error,
		status, human_feedback, created_at, updated_at`

func scanRawQuestion(row rowScanner) (*domain.RawQuestion, error) {
	var (
		q                                   domain.RawQuestion
		qType, status                       string
		customPrompt, reviewError, feedback sql.NullString
		generation, review                  []byte
		reviewTokens                        sql.NullInt64
		reviewCost                          sql.NullFloat64
	)

	err := row.Scan(
		&q.ID,
		&q.RequestID,
		&qType,
		&q.KnowledgePoint,
		&q.Difficulty,
		&customPrompt,
		&generation,
		&q.GenerationTokens,
		&q.GenerationCost,
		&review,
		&reviewTokens,
		&reviewCost,
		&reviewError,
		&status,
		&feedback,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Type = domain.QuestionType(qType)
	q.Status = domain.QuestionStatus(status)
	q.CustomPrompt = nullStringPtr(customPrompt)
	q.ReviewError = nullStringPtr(reviewError)
	q.HumanFeedback = nullStringPtr(feedback)

	if err := json.Unmarshal(generation, &q.Content); err != nil {
		return nil, fmt.Errorf("failed to decode generation for raw question %d: %w", q.ID, err)
	}
	if len(review) > 0 {
		var v domain.Verdict
		if err := json.Unmarshal(review, &v); err != nil {
			return nil, fmt.Errorf("failed to decode review for raw question %d: %w", q.ID, err)
		}
		q.Verdict = &v
	}
	if reviewTokens.Valid {
		n := int(reviewTokens.Int64)
		q.ReviewTokens = &n
	}
	if reviewCost.Valid {
		c := reviewCost.Float64
		q.ReviewCost = &c
	}

	return &q, nil
}

const questionColumns = `id, raw_question_id, type, knowledge_point, difficulty,
		question_text, options, correct_answer, solution, quality_score, created_at`

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var (
		q            domain.Question
		qType        string
		options      []byte
		qualityScore sql.NullInt64
	)

	err := row.Scan(
		&q.ID,
		&q.RawQuestionID,
		&qType,
		&q.KnowledgePoint,
		&q.Difficulty,
		&q.QuestionText,
		&options,
		&q.CorrectAnswer,
		&q.Solution,
		&qualityScore,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Type = domain.QuestionType(qType)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
		}
	}
	if qualityScore.Valid {
		s := int(qualityScore.Int64)
		q.QualityScore = &s
	}

	return &q, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// whereBuilder accumulates AND-ed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders when limit is positive.
func (w *whereBuilder) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	w.args = append(w.args, limit)
	s := " LIMIT $" + strconv.Itoa(len(w.args))
	if offset > 0 {
		w.args = append(w.args, offset)
		s += " OFFSET $" + strconv.Itoa(len(w.args))
	}
	return s
}
