package schema

import (
	"encoding/json"
	"time"
)

const (
	// HeaderType discriminates the first record of every session file.
	HeaderType = "session"

	// CurrentVersion is the logical schema version written by this code.
	// Older versions are upgraded in memory by core/migrate.
	CurrentVersion = 3
)

// Kind discriminates the record variants that follow the header.
type Kind string

const (
	KindMessage             Kind = "message"
	KindThinkingLevelChange Kind = "thinkingLevelChange"
	KindModelChange         Kind = "modelChange"
	KindCompaction          Kind = "compaction"
	KindBranchSummary       Kind = "branchSummary"
	KindCustom              Kind = "custom"
	KindCustomMessage       Kind = "customMessage"
	KindLabel               Kind = "label"
	KindSessionInfo         Kind = "sessionInfo"
)

// Role discriminates message entries.
type Role string

const (
	RoleUser          Role = "user"
	RoleAssistant     Role = "assistant"
	RoleToolResult    Role = "toolResult"
	RoleBashExecution Role = "bashExecution"
	RoleCustom        Role = "custom"

	// RoleBashLegacy is the pre-v3 spelling of RoleBashExecution, rewritten
	// by the v2 to v3 migration.
	RoleBashLegacy Role = "bash"
)

// Header is always record 0 of a session file.
type Header struct {
	Type          string `json:"type"`
	Version       int    `json:"version"`
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Cwd           string `json:"cwd"`
	ParentSession string `json:"parentSession,omitempty"`
	ParentDigest  string `json:"parentDigest,omitempty"`
}

// Entry is one immutable record of the append-only log. One struct covers
// every kind; unused fields stay empty and are omitted on the wire.
type Entry struct {
	Type      Kind   `json:"type"`
	ID        string `json:"id"`
	ParentID  string `json:"parentId,omitempty"`
	Timestamp string `json:"timestamp"`

	// message
	Message *Message `json:"message,omitempty"`

	// thinkingLevelChange
	ThinkingLevel string `json:"thinkingLevel,omitempty"`

	// modelChange
	Provider string `json:"provider,omitempty"`
	ModelID  string `json:"modelId,omitempty"`

	// compaction and branchSummary share Summary
	Summary          string `json:"summary,omitempty"`
	FirstKeptEntryID string `json:"firstKeptEntryId,omitempty"`
	TokensBefore     int    `json:"tokensBefore,omitempty"`
	FromID           string `json:"fromId,omitempty"`

	// FirstKeptEntryIndex is the pre-v2 positional compaction reference.
	// The v1 to v2 migration resolves it to FirstKeptEntryID.
	FirstKeptEntryIndex *int `json:"firstKeptEntryIndex,omitempty"`

	// custom and customMessage
	CustomKind string          `json:"customKind,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Content    string          `json:"content,omitempty"`
	Display    bool            `json:"display,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`

	// label; a nil Label clears a previous bookmark on TargetID
	TargetID string  `json:"targetId,omitempty"`
	Label    *string `json:"label,omitempty"`

	// sessionInfo
	Name string `json:"name,omitempty"`
}

// IsMessageRole reports whether the entry is a message with the given role.
func (e *Entry) IsMessageRole(role Role) bool {
	return e.Type == KindMessage && e.Message != nil && e.Message.Role == role
}

// Timestamp format shared by headers and entries.
const TimestampFormat = time.RFC3339Nano

// Now returns the current UTC time in the wire timestamp format.
func Now() string {
	return time.Now().UTC().Format(TimestampFormat)
}
