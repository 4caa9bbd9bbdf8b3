// Package store is the session store facade: it owns one session log for
// its process lifetime and drives the tree index, context builder,
// compaction engine, branch navigator, and extension hooks over it. All
// mutating operations serialize on one mutex; reads are in-memory and
// side-effect free.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/davidahmann/loom/core/compaction"
	"github.com/davidahmann/loom/core/complete"
	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/hooks"
	"github.com/davidahmann/loom/core/migrate"
	"github.com/davidahmann/loom/core/replay"
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/sessionlog"
	"github.com/davidahmann/loom/core/tree"
)

// Options configure a store. Zero values are usable: no hooks, no
// completion client (compaction and branch summaries then fail cleanly),
// discarded logs.
type Options struct {
	// Cwd and BaseDir seed fresh sessions; see sessionlog.Options.
	Cwd     string
	BaseDir string
	// Hooks receives the extension callbacks. Nil means no extensions.
	Hooks hooks.Dispatcher
	// Completer generates compaction and branch summaries.
	Completer complete.Client
	// Compaction tunes the engine thresholds.
	Compaction compaction.Options
	// Logger receives operational events. Nil discards them.
	Logger *slog.Logger
}

// Store binds one session log to its in-memory tree.
type Store struct {
	mu     sync.Mutex
	log    *sessionlog.Log
	index  *tree.Index
	hooks  hooks.Dispatcher
	engine *compaction.Engine
	logger *slog.Logger
}

// New creates a fresh session. Nothing persists until the first completed
// assistant turn.
func New(options Options) (*Store, error) {
	log, err := sessionlog.New(sessionlog.Options{Cwd: options.Cwd, BaseDir: options.BaseDir})
	if err != nil {
		return nil, err
	}
	return assemble(log, options), nil
}

// Open resumes an existing session file: load, migrate in memory, index,
// and point the leaf at the most recently appended entry.
func Open(path string, options Options) (*Store, error) {
	log, err := sessionlog.Open(path)
	if err != nil {
		return nil, err
	}
	store := assemble(log, options)
	header := log.Header()
	entries := log.Entries()
	if migrate.Run(&header, entries) {
		log.SetHeader(header)
		log.SetEntries(entries)
		store.index = tree.Build(entries)
		store.logger.Info("migrated session in memory", "session", header.ID, "version", header.Version)
	}
	if skipped := log.SkippedRecords(); skipped > 0 {
		store.logger.Warn("skipped malformed records on load", "session", header.ID, "skipped", skipped)
	}
	return store, nil
}

func assemble(log *sessionlog.Log, options Options) *Store {
	dispatcher := options.Hooks
	if dispatcher == nil {
		dispatcher = hooks.Nop{}
	}
	return &Store{
		log:    log,
		index:  tree.Build(log.Entries()),
		hooks:  dispatcher,
		engine: &compaction.Engine{Client: options.Completer, Options: options.Compaction},
		logger: defaultLogger(options.Logger),
	}
}

// SessionID returns the header's session identifier.
func (s *Store) SessionID() string {
	return s.log.Header().ID
}

// Path returns the session file path, whether or not it exists yet.
func (s *Store) Path() string {
	return s.log.Path()
}

// Header returns the (possibly migrated) session header.
func (s *Store) Header() schema.Header {
	return s.log.Header()
}

// Leaf reports the current active position.
func (s *Store) Leaf() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Leaf()
}

// SetLeaf moves the active position to id. A missing id falls back to the
// newest entry; the degradation is logged and reported, never silent.
func (s *Store) SetLeaf(id string) (recovered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recovered = s.index.SetLeaf(id)
	if recovered {
		fallback, _ := s.index.Leaf()
		s.logger.Warn("leaf id missing, fell back to newest entry", "session", s.SessionID(), "requested", id, "leaf", fallback)
	}
	return recovered
}

// Entries returns a copy of the in-memory record sequence.
func (s *Store) Entries() []schema.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.log.Entries()
	out := make([]schema.Entry, len(entries))
	copy(out, entries)
	return out
}

// Entry looks up one entry by id.
func (s *Store) Entry(id string) (*schema.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Get(id)
}

// Children returns the ids parented at id, in append order. The root's
// children are under the empty id.
func (s *Store) Children(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Children(id)
}

// BuildContext reconstructs the message sequence and active settings for
// the current leaf, ready to hand to the agent runtime.
func (s *Store) BuildContext() replay.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	leaf, _ := s.index.Leaf()
	return replay.BuildContext(s.index, leaf)
}

// AppendMessage appends one conversation turn at the leaf and returns the
// new entry's id.
func (s *Store) AppendMessage(message schema.Message) (string, error) {
	if message.Role == "" {
		return "", errors.New("message role is required", errors.CategoryInvalidInput, "missing_role", "")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(schema.Entry{Type: schema.KindMessage, Message: &message})
}

// AppendThinkingLevelChange records a reasoning-level change effective from
// this point forward.
func (s *Store) AppendThinkingLevelChange(level string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(schema.Entry{Type: schema.KindThinkingLevelChange, ThinkingLevel: level})
}

// AppendModelChange records a model selection effective from this point
// forward.
func (s *Store) AppendModelChange(provider, modelID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(schema.Entry{Type: schema.KindModelChange, Provider: provider, ModelID: modelID})
}

// AppendCustom records opaque extension state, excluded from context.
func (s *Store) AppendCustom(customKind string, data json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(schema.Entry{Type: schema.KindCustom, CustomKind: customKind, Data: data})
}

// AppendCustomMessage records extension content that is part of context.
// Details stay extension-only and never reach the model.
func (s *Store) AppendCustomMessage(content string, display bool, details json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(schema.Entry{Type: schema.KindCustomMessage, Content: content, Display: display, Details: details})
}

// SetLabel bookmarks targetID; a nil label clears a previous bookmark.
func (s *Store) SetLabel(targetID string, label *string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index.Get(targetID); !ok {
		return "", errors.New(
			fmt.Sprintf("label target %s not found", targetID),
			errors.CategoryInvalidInput, "unknown_target", "")
	}
	return s.append(schema.Entry{Type: schema.KindLabel, TargetID: targetID, Label: label})
}

// Rename records a user-defined display name; the most recent one wins.
func (s *Store) Rename(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(schema.Entry{Type: schema.KindSessionInfo, Name: name})
}

// Labels returns the effective bookmarks after replaying set and clear
// entries in order.
func (s *Store) Labels() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make(map[string]string)
	for _, entry := range s.log.Entries() {
		if entry.Type != schema.KindLabel {
			continue
		}
		if entry.Label == nil {
			delete(labels, entry.TargetID)
		} else {
			labels[entry.TargetID] = *entry.Label
		}
	}
	return labels
}

// Name returns the effective display name, empty when never renamed.
func (s *Store) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ""
	for _, entry := range s.log.Entries() {
		if entry.Type == schema.KindSessionInfo {
			name = entry.Name
		}
	}
	return name
}

// Stats summarizes the session for operational introspection.
type Stats struct {
	Entries         int `json:"entries"`
	EstimatedTokens int `json:"estimated_tokens"`
	Compactions     int `json:"compactions"`
	SkippedRecords  int `json:"skipped_records,omitempty"`
}

// Stats reports entry counts and the token estimate of the current leaf's
// context.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{
		Entries:        s.index.Len(),
		SkippedRecords: s.log.SkippedRecords(),
	}
	for _, entry := range s.log.Entries() {
		if entry.Type == schema.KindCompaction {
			stats.Compactions++
		}
	}
	leaf, ok := s.index.Leaf()
	if ok {
		stats.EstimatedTokens = compaction.EstimateContext(s.index.Branch(leaf))
	}
	return stats
}

// append assigns identity and position, persists, and indexes one entry.
// Caller holds the mutex.
func (s *Store) append(entry schema.Entry) (string, error) {
	entry.ID = s.index.GenerateIDFor()
	leaf, _ := s.index.Leaf()
	entry.ParentID = leaf
	entry.Timestamp = schema.Now()
	if err := s.log.Append(entry); err != nil {
		return "", err
	}
	s.index.Add(entry)
	return entry.ID, nil
}
