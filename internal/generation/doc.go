// Package generation turns chat model completions into validated question
// content and review verdicts.
//
// The Generator renders a deterministic prompt for a question request, calls
// a ChatModel, extracts the first JSON object from the free-text reply and
// validates it against the requested question type. The Reviewer does the
// same for verdicts and normalizes scores. Both retry with exponential
// backoff and record one audit entry per model attempt through an
// AuditLogger. Provider specific clients live under internal/platform.
package generation
