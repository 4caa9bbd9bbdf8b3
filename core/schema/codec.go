package schema

import (
	"encoding/json"
	"fmt"
)

var knownKinds = map[Kind]struct{}{
	KindMessage:             {},
	KindThinkingLevelChange: {},
	KindModelChange:         {},
	KindCompaction:          {},
	KindBranchSummary:       {},
	KindCustom:              {},
	KindCustomMessage:       {},
	KindLabel:               {},
	KindSessionInfo:         {},
}

// KnownKind reports whether kind names a record variant this code reads.
func KnownKind(kind Kind) bool {
	_, ok := knownKinds[kind]
	return ok
}

// EncodeLine serializes one record as a single JSON line without the
// trailing newline; the append layer owns line framing.
func EncodeLine(record any) ([]byte, error) {
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return encoded, nil
}

// DecodeHeader parses record 0. It fails when the line is not JSON, is not a
// header record, or carries a version this code cannot read.
func DecodeHeader(line []byte) (Header, error) {
	var header Header
	if err := json.Unmarshal(line, &header); err != nil {
		return Header{}, fmt.Errorf("parse header: %w", err)
	}
	if header.Type != HeaderType {
		return Header{}, fmt.Errorf("record 0 has type %q, want %q", header.Type, HeaderType)
	}
	if header.Version < 1 || header.Version > CurrentVersion {
		return Header{}, fmt.Errorf("unsupported session version %d", header.Version)
	}
	if header.ID == "" {
		return Header{}, fmt.Errorf("header missing session id")
	}
	return header, nil
}

// DecodeEntry parses one non-header record. A failure here marks a crash
// artifact; the loader skips the line rather than aborting.
func DecodeEntry(line []byte) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(line, &entry); err != nil {
		return Entry{}, fmt.Errorf("parse entry: %w", err)
	}
	if !KnownKind(entry.Type) {
		return Entry{}, fmt.Errorf("unknown entry type %q", entry.Type)
	}
	if entry.Type == KindMessage && entry.Message == nil {
		return Entry{}, fmt.Errorf("message entry without message body")
	}
	return entry, nil
}
