// Package domain contains the core business entities of the question bank:
// raw questions produced by the generation pipeline, the review verdicts
// attached to them, promoted questions, and the audit records of external
// model calls. It is independent of any storage or delivery mechanism.
package domain
