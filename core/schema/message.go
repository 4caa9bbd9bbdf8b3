package schema

import (
	"encoding/json"
	"strings"
)

// BlockType discriminates message content blocks.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolCall   BlockType = "toolCall"
	BlockToolResult BlockType = "toolResult"
)

// Message is one conversation turn carried by a message entry.
type Message struct {
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	Model      string         `json:"model,omitempty"`
	Usage      *Usage         `json:"usage,omitempty"`
	StopReason string         `json:"stopReason,omitempty"`
}

// ContentBlock is one unit of message content.
type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`

	// toolCall
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`

	// toolResult
	IsError bool `json:"isError,omitempty"`

	// image
	MediaType string `json:"mediaType,omitempty"`
	ImageData string `json:"imageData,omitempty"`
}

// Usage is the accounting an assistant turn reports.
type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	CacheRead    int `json:"cacheRead,omitempty"`
	// ContextTokens is the provider-reported total context size after the
	// turn, when available. Zero means unreported.
	ContextTokens int `json:"contextTokens,omitempty"`
}

// TextContent concatenates the text blocks of the message.
func (m *Message) TextContent() string {
	var parts []string
	for _, block := range m.Content {
		if block.Type == BlockText && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// HasToolCalls reports whether the message invokes at least one tool.
func (m *Message) HasToolCalls() bool {
	for _, block := range m.Content {
		if block.Type == BlockToolCall {
			return true
		}
	}
	return false
}

// TextMessage builds a single-text-block message for the given role.
func TextMessage(role Role, text string) *Message {
	return &Message{
		Role:    role,
		Content: []ContentBlock{{Type: BlockText, Text: text}},
	}
}
