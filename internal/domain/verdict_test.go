package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictNormalize(t *testing.T) {
	t.Parallel()

	t.Run("clamps scores", func(t *testing.T) {
		v := Verdict{Passed: true, OverallScore: 150, LogicScore: -4, CalculationScore: 100, FormatScore: 0}
		v.Normalize()
		assert.Equal(t, 100, v.OverallScore)
		assert.Equal(t, 0, v.LogicScore)
		assert.Equal(t, 100, v.CalculationScore)
		assert.True(t, v.Passed)
		assert.Empty(t, v.Issues)
		assert.NotNil(t, v.Suggestions)
		assert.NotNil(t, v.PositivePoints)
	})

	t.Run("low passing score is overridden", func(t *testing.T) {
		v := Verdict{Passed: true, OverallScore: 69}
		v.Normalize()
		assert.False(t, v.Passed)
		require.Len(t, v.Issues, 1)
		assert.Equal(t, IssueTypeLogic, v.Issues[0].Type)
		assert.Equal(t, SeverityHigh, v.Issues[0].Severity)
	})

	t.Run("threshold score passes", func(t *testing.T) {
		v := Verdict{Passed: true, OverallScore: 70}
		v.Normalize()
		assert.True(t, v.Passed)
		assert.Empty(t, v.Issues)
	})

	t.Run("failing verdict is left alone", func(t *testing.T) {
		v := Verdict{Passed: false, OverallScore: 20, Issues: []Issue{{Type: IssueTypeFormat, Severity: SeverityLow, Description: "typo"}}}
		v.Normalize()
		assert.False(t, v.Passed)
		assert.Len(t, v.Issues, 1)
	})
}

func TestStatusForVerdict(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusAutoPass, StatusForVerdict(&Verdict{Passed: true}))
	assert.Equal(t, StatusAIReject, StatusForVerdict(&Verdict{Passed: false}))
	assert.Equal(t, StatusAIReject, StatusForVerdict(nil))
}
