package schema

import (
	"bytes"
	"testing"
)

func TestDecodeHeaderRoundTrip(t *testing.T) {
	header := Header{
		Type:      HeaderType,
		Version:   CurrentVersion,
		ID:        "3f8a1c2e",
		Timestamp: "2026-08-29T10:00:00Z",
		Cwd:       "/home/user/project",
	}
	line, err := EncodeLine(header)
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	decoded, err := DecodeHeader(line)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if decoded != header {
		t.Fatalf("header round trip mismatch: %+v", decoded)
	}
}

func TestDecodeHeaderRejectsNonHeaderRecord(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "entry record", line: `{"type":"message","id":"a","timestamp":"t","message":{"role":"user"}}`},
		{name: "not json", line: `{"type":"sess`},
		{name: "missing id", line: `{"type":"session","version":3,"timestamp":"t"}`},
		{name: "future version", line: `{"type":"session","version":99,"id":"x","timestamp":"t"}`},
		{name: "version zero", line: `{"type":"session","version":0,"id":"x","timestamp":"t"}`},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := DecodeHeader([]byte(testCase.line)); err == nil {
				t.Fatalf("expected header rejection for %s", testCase.name)
			}
		})
	}
}

func TestDecodeEntryRoundTripPreservesBytes(t *testing.T) {
	entry := Entry{
		Type:      KindMessage,
		ID:        "a1",
		ParentID:  "a0",
		Timestamp: "2026-08-29T10:00:01Z",
		Message: &Message{
			Role: RoleAssistant,
			Content: []ContentBlock{
				{Type: BlockText, Text: "hello"},
				{Type: BlockToolCall, ToolCallID: "t1", ToolName: "read", Arguments: []byte(`{"path":"main.go"}`)},
			},
			Usage:      &Usage{InputTokens: 10, OutputTokens: 3, ContextTokens: 13},
			StopReason: "end_turn",
		},
	}
	first, err := EncodeLine(entry)
	if err != nil {
		t.Fatalf("encode entry: %v", err)
	}
	decoded, err := DecodeEntry(first)
	if err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	second, err := EncodeLine(decoded)
	if err != nil {
		t.Fatalf("re-encode entry: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("entry round trip not byte stable:\n%s\n%s", first, second)
	}
}

func TestDecodeEntryRejectsCrashArtifacts(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "truncated json", line: `{"type":"message","id":"a","mess`},
		{name: "unknown kind", line: `{"type":"telemetry","id":"a"}`},
		{name: "message without body", line: `{"type":"message","id":"a","timestamp":"t"}`},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := DecodeEntry([]byte(testCase.line)); err == nil {
				t.Fatalf("expected entry rejection for %s", testCase.name)
			}
		})
	}
}

func TestLabelNilClearsVersusEmptySets(t *testing.T) {
	set := "bookmark"
	withLabel := Entry{Type: KindLabel, ID: "l1", TargetID: "a1", Label: &set, Timestamp: "t"}
	line, err := EncodeLine(withLabel)
	if err != nil {
		t.Fatalf("encode label entry: %v", err)
	}
	decoded, err := DecodeEntry(line)
	if err != nil {
		t.Fatalf("decode label entry: %v", err)
	}
	if decoded.Label == nil || *decoded.Label != "bookmark" {
		t.Fatalf("expected label to survive round trip: %+v", decoded.Label)
	}

	clearing := Entry{Type: KindLabel, ID: "l2", TargetID: "a1", Timestamp: "t"}
	line, err = EncodeLine(clearing)
	if err != nil {
		t.Fatalf("encode clearing entry: %v", err)
	}
	decoded, err = DecodeEntry(line)
	if err != nil {
		t.Fatalf("decode clearing entry: %v", err)
	}
	if decoded.Label != nil {
		t.Fatalf("expected absent label to decode as nil, got %q", *decoded.Label)
	}
}

func TestMessageHelpers(t *testing.T) {
	message := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: BlockText, Text: "first"},
			{Type: BlockToolCall, ToolCallID: "t1", ToolName: "bash"},
			{Type: BlockText, Text: "second"},
		},
	}
	if message.TextContent() != "first\nsecond" {
		t.Fatalf("unexpected text content: %q", message.TextContent())
	}
	if !message.HasToolCalls() {
		t.Fatal("expected tool calls to be detected")
	}
	plain := TextMessage(RoleUser, "hi")
	if plain.Role != RoleUser || plain.TextContent() != "hi" {
		t.Fatalf("unexpected text message: %+v", plain)
	}
	if plain.HasToolCalls() {
		t.Fatal("text message must not report tool calls")
	}
}
