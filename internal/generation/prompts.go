package generation

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/phrazzld/qforge/internal/domain"
)

const generationSystemPrompt = "You are a senior high-school mathematics teacher and exam writer. " +
	"Write high quality mathematics questions and reply strictly in the JSON format the user asks for."

const reviewSystemPrompt = "You are a rigorous high-school mathematics teacher who reviews exam questions. " +
	"Assess each question objectively and reply strictly in the JSON format the user asks for."

var generationTemplate = template.Must(template.New("generation").Parse(
	`Write one {{.TypeLabel}} question of difficulty {{.Difficulty}} (on a scale of 1 to 5) for the knowledge point: {{.KnowledgePoint}}.

Requirements:
1. The content must match the high-school curriculum at the requested difficulty.
2. Use LaTeX for formulas: $...$ for inline and $$...$$ for display formulas.
3. The solution must be detailed with every step shown.
4. Multiple-choice questions have exactly four options labelled A, B, C and D.
5. The answer must be correct.
{{if .CustomPrompt}}
Additional requirements: {{.CustomPrompt}}
{{end}}
Reply with a single JSON object in exactly this format:
{{.Format}}`))

var formatTemplates = map[domain.QuestionType]string{
	domain.QuestionTypeChoice: `{
  "question": "question text (LaTeX)",
  "options": {
    "A": "option A",
    "B": "option B",
    "C": "option C",
    "D": "option D"
  },
  "answer": "letter of the correct option, e.g. A",
  "solution": "detailed worked solution (LaTeX)"
}`,
	domain.QuestionTypeBlank: `{
  "question": "question text with ______ marking each blank (LaTeX)",
  "answer": "correct answer, multiple answers separated by ;",
  "solution": "detailed worked solution (LaTeX)"
}`,
	domain.QuestionTypeSolution: `{
  "question": "question text (LaTeX)",
  "answer": "final answer or key points",
  "solution": "complete derivation with every step (LaTeX)"
}`,
}

var reviewTemplate = template.Must(template.New("review").Parse(
	`Review the AI-generated mathematics question below along three dimensions:

1. Logic: the statement is clear, consistent and has sufficient conditions.
2. Calculation: every computation in the answer and solution is correct.
3. Format: LaTeX is valid, options are well formed and the solution is complete.

Question type: {{.TypeLabel}}
Question: {{.Question}}
{{- if .Options}}
Options:
{{- range .Options}}
{{.Label}}. {{.Text}}
{{- end}}
{{- end}}
Reference answer: {{.Answer}}
Solution: {{.Solution}}

Reply with a single JSON object in exactly this format:
{
  "passed": true,
  "overall_score": 85,
  "logic_score": 90,
  "calculation_score": 85,
  "format_score": 80,
  "issues": [
    {"type": "logic|calculation|format", "severity": "high|medium|low", "description": "specific problem"}
  ],
  "suggestions": ["actionable improvement"],
  "positive_points": ["strength of the question"]
}

Rules:
- passed must be false when there is a serious logic or calculation error.
- Scores are integers from 0 to 100; passed must be false when overall_score is below 70.
- Issues must be specific and suggestions actionable.
- Point out possible improvements even when the question passes.`))

type generationPromptData struct {
	TypeLabel      string
	Difficulty     int
	KnowledgePoint string
	CustomPrompt   string
	Format         string
}

type optionLine struct {
	Label string
	Text  string
}

type reviewPromptData struct {
	TypeLabel string
	Question  string
	Options   []optionLine
	Answer    string
	Solution  string
}

// RenderGenerationPrompt renders the user prompt for req. The output depends
// only on the request fields.
func RenderGenerationPrompt(req GenerationRequest) (string, error) {
	format, ok := formatTemplates[req.Type]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidQuestionType, req.Type)
	}

	var buf bytes.Buffer
	err := generationTemplate.Execute(&buf, generationPromptData{
		TypeLabel:      req.Type.Label(),
		Difficulty:     req.Difficulty,
		KnowledgePoint: req.KnowledgePoint,
		CustomPrompt:   req.CustomPrompt,
		Format:         format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute generation prompt template: %w", err)
	}
	return buf.String(), nil
}

// RenderReviewPrompt renders the user prompt for reviewing req.Content.
func RenderReviewPrompt(req ReviewRequest) (string, error) {
	data := reviewPromptData{
		TypeLabel: req.Type.Label(),
		Question:  req.Content.Question,
		Answer:    req.Content.Answer,
		Solution:  req.Content.Solution,
	}
	if req.Type == domain.QuestionTypeChoice {
		labels := make([]string, 0, len(req.Content.Options))
		for label := range req.Content.Options {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			data.Options = append(data.Options, optionLine{Label: label, Text: req.Content.Options[label]})
		}
	}

	var buf bytes.Buffer
	if err := reviewTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute review prompt template: %w", err)
	}
	return buf.String(), nil
}
