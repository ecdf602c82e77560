package generation

import "errors"

// Common errors returned by the generation package.
var (
	// ErrParse is returned when no JSON object can be extracted from a model reply.
	ErrParse = errors.New("could not parse model response")

	// ErrValidation is returned when the extracted JSON lacks required fields.
	ErrValidation = errors.New("model response failed validation")

	// ErrGenerationFailed is returned when every generation attempt failed.
	ErrGenerationFailed = errors.New("question generation failed")

	// ErrReviewFailed is returned when every review attempt failed.
	ErrReviewFailed = errors.New("question review failed")

	// ErrEmptyResponse is returned when the model replied with no text.
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrContentBlocked is returned when the provider blocks the content.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when an adapter or client is misconfigured.
	ErrInvalidConfig = errors.New("invalid generation configuration")
)
