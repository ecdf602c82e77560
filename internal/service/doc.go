// Package service contains the application use cases of the question
// pipeline. It sits between the HTTP handlers in internal/api and the
// stores, caches and background runner they coordinate.
//
// Key components:
//
// 1. Submission:
//   - Validates a generation request and derives its cache key
//   - Serves cached outcomes, joins identical in-flight runs, or launches a
//     new pipeline task on the task runner
//
// 2. Review decisions:
//   - Confirm promotes a raw question into the question bank
//   - Reject records mandatory human feedback
//
// 3. Read models:
//   - Status previews, paginated listings and usage statistics
//
// 4. Error Handling:
//   - Store and domain sentinels pass through unchanged so the API layer can
//     map them; anything else is wrapped in a QuestionServiceError
package service
