// Package gemini implements generation.ChatModel on Google's Gemini API via
// the google.golang.org/genai client. It can back either pipeline stage when
// the generator or reviewer provider is configured as gemini.
package gemini
