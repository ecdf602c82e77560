package service

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
)

// DefaultStatisticsRange is used when no range is requested.
const DefaultStatisticsRange = "24h"

var statisticsRanges = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// QuestionCounts are the raw question totals per status.
type QuestionCounts struct {
	TotalRaw       int `json:"totalRaw"`
	AutoPass       int `json:"autoPass"`
	AIReject       int `json:"aiReject"`
	Confirmed      int `json:"confirmed"`
	HumanReject    int `json:"humanReject"`
	TotalQuestions int `json:"totalQuestions"`
}

// Statistics summarizes the question bank and model usage over a range.
type Statistics struct {
	Range     string                `json:"range"`
	Since     time.Time             `json:"since"`
	Questions QuestionCounts        `json:"questions"`
	Providers []store.ProviderUsage `json:"providers"`
	TotalCost float64               `json:"totalCost"`

	// AIPassRate is the percentage of raw questions still at auto_pass.
	AIPassRate float64 `json:"aiPassRate"`

	// ConfirmRate is the percentage of raw questions confirmed by a human.
	ConfirmRate float64 `json:"confirmRate"`

	GeneratedAt time.Time `json:"generatedAt"`
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// Statistics summarizes question states and per-provider usage. rangeName is
// one of 1h, 24h, 7d or 30d; empty selects 24h.
func (s *questionServiceImpl) Statistics(ctx context.Context, rangeName string) (*Statistics, error) {
	if rangeName == "" {
		rangeName = DefaultStatisticsRange
	}
	window, ok := statisticsRanges[rangeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want 1h, 24h, 7d or 30d)", ErrInvalidRange, rangeName)
	}

	now := s.now().UTC()
	since := now.Add(-window)

	counts, err := s.stats.StatusCounts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count question statuses", "error", err)
		return nil, NewQuestionServiceError("statistics", "failed to count question statuses", err)
	}
	promoted, err := s.stats.QuestionCount(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count questions", "error", err)
		return nil, NewQuestionServiceError("statistics", "failed to count questions", err)
	}
	usage, err := s.stats.ProviderUsage(ctx, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to aggregate provider usage", "error", err)
		return nil, NewQuestionServiceError("statistics", "failed to aggregate provider usage", err)
	}
	if usage == nil {
		usage = []store.ProviderUsage{}
	}

	q := QuestionCounts{
		AutoPass:       counts[domain.StatusAutoPass],
		AIReject:       counts[domain.StatusAIReject],
		Confirmed:      counts[domain.StatusConfirmed],
		HumanReject:    counts[domain.StatusHumanReject],
		TotalQuestions: promoted,
	}
	q.TotalRaw = q.AutoPass + q.AIReject + q.Confirmed + q.HumanReject

	var cost float64
	for _, u := range usage {
		cost += u.TotalCost
	}

	return &Statistics{
		Range:       rangeName,
		Since:       since,
		Questions:   q,
		Providers:   usage,
		TotalCost:   cost,
		AIPassRate:  percent(q.AutoPass, q.TotalRaw),
		ConfirmRate: percent(q.Confirmed, q.TotalRaw),
		GeneratedAt: now,
	}, nil
}
