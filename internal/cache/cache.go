package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrMiss is returned by a Backend when the key is absent or expired.
	ErrMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned by a Backend that cannot be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// DefaultTTL is how long a pipeline result stays cached.
const DefaultTTL = 300 * time.Second

// previewRunes is the number of question runes kept in a cached preview.
const previewRunes = 100

// Backend is a byte-oriented key/value store with expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives the cache key for a generation request. It is a pure function
// of its inputs; free-text fields are fingerprinted with BLAKE2b-128 so the
// key stays short and contains no user text.
func Key(qType domain.QuestionType, difficulty int, knowledgePoint, customPrompt string) string {
	return fmt.Sprintf("question:%s:%d:%s:%s",
		qType, difficulty, fingerprint(knowledgePoint), fingerprint(customPrompt))
}

func fingerprint(s string) string {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// Only possible for an invalid size or key.
		panic(err)
	}
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// Preview is the abbreviated question stored in a cache entry.
type Preview struct {
	Question       string              `json:"question"`
	Type           domain.QuestionType `json:"type"`
	KnowledgePoint string              `json:"knowledgePoint"`
	Difficulty     int                 `json:"difficulty"`
	ReviewScore    *int                `json:"reviewScore"`
}

// Entry is the cached outcome of one pipeline run.
type Entry struct {
	RequestID string                `json:"requestId"`
	Status    domain.QuestionStatus `json:"status"`
	Preview   Preview               `json:"preview"`
	CreatedAt time.Time             `json:"createdAt"`
}

// NewEntry builds the cache entry for a raw question after its pipeline run.
// ReviewScore is nil when the review did not produce a verdict.
func NewEntry(raw *domain.RawQuestion) *Entry {
	e := &Entry{
		RequestID: raw.RequestID,
		Status:    raw.Status,
		Preview: Preview{
			Question:       domain.Truncate(raw.Content.Question, previewRunes),
			Type:           raw.Type,
			KnowledgePoint: raw.KnowledgePoint,
			Difficulty:     raw.Difficulty,
		},
		CreatedAt: time.Now().UTC(),
	}
	if raw.Verdict != nil {
		score := raw.Verdict.OverallScore
		e.Preview.ReviewScore = &score
	}
	return e
}
