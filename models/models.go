package models

import "strings"

// Message is one turn of a conversation between the user and the assistant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered sequence of messages.
type Conversation []Message

// Flatten renders the conversation as "ROLE: content" blocks for prompting.
func (c Conversation) Flatten() string {
	parts := make([]string, 0, len(c))
	for _, m := range c {
		parts = append(parts, strings.ToUpper(m.Role)+": "+m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// LastUser returns the content of the most recent user message, or the last
// message of any role when no user message exists.
func (c Conversation) LastUser() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == "user" {
			return c[i].Content
		}
	}
	if len(c) > 0 {
		return c[len(c)-1].Content
	}
	return ""
}

// Empty reports whether the conversation has no non-blank content.
func (c Conversation) Empty() bool {
	for _, m := range c {
		if strings.TrimSpace(m.Content) != "" {
			return false
		}
	}
	return true
}
