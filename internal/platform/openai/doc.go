// Package openai implements generation.ChatModel against OpenAI-compatible
// chat completion APIs. DeepSeek (generation) and Moonshot Kimi (review)
// both expose this protocol, so one client serves both providers.
package openai
