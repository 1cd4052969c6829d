// Package prompt assembles the canonical ordered message list sent to a
// provider: system prompt first, a bounded suffix of conversation history,
// then the new user message last.
package prompt

import "chatgate/internal/core"

// DefaultSystemPrompt is used when the caller supplies no system prompt.
const DefaultSystemPrompt = "You are a helpful, knowledgeable assistant. Answer clearly and concisely."

// MaxHistory bounds how many prior conversation turns are forwarded to a
// provider. Older entries are dropped.
const MaxHistory = 10

// Build returns the ordered message sequence for one request. It is a pure
// function: no I/O, deterministic for identical inputs.
func Build(message, systemPrompt string, conversation []core.ChatTurn) []core.Message {
	system := systemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}

	history := conversation
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	messages := make([]core.Message, 0, len(history)+2)
	messages = append(messages, core.Message{Role: core.RoleSystem, Content: system})
	for _, turn := range history {
		messages = append(messages, core.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: message})
	return messages
}
