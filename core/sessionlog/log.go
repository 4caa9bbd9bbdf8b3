package sessionlog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/fsx"
	"github.com/davidahmann/loom/core/schema"
)

// FileMode is the permission mode for session files.
const FileMode = 0o600

// Options configure a fresh session log.
type Options struct {
	// Cwd is the working directory recorded in the header and used to
	// derive the per-project session directory.
	Cwd string
	// BaseDir is the sessions root. Empty means DefaultBaseDir().
	BaseDir string
	// ParentSession and ParentDigest record fork provenance.
	ParentSession string
	ParentDigest  string
}

// Log owns one session file: the header, the ordered in-memory record
// sequence, and durability. A freshly created log stays in memory until the
// first completed assistant turn; from then on every append is one durable
// line.
type Log struct {
	path      string
	header    schema.Header
	entries   []schema.Entry
	persisted bool
	skipped   int
}

// New creates an in-memory log with a fresh header. Nothing touches disk
// until persistence starts.
func New(opts Options) (*Log, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		resolved, err := DefaultBaseDir()
		if err != nil {
			return nil, err
		}
		baseDir = resolved
	}
	now := time.Now().UTC()
	header := schema.Header{
		Type:          schema.HeaderType,
		Version:       schema.CurrentVersion,
		ID:            uuid.NewString(),
		Timestamp:     now.Format(schema.TimestampFormat),
		Cwd:           opts.Cwd,
		ParentSession: opts.ParentSession,
		ParentDigest:  opts.ParentDigest,
	}
	path := filepath.Join(baseDir, ProjectDirName(opts.Cwd), FileName(now, header.ID))
	return &Log{path: path, header: header}, nil
}

// Open loads an existing session file. A missing or invalid header fails
// the open; malformed entry records are skipped and counted.
func Open(path string) (*Log, error) {
	header, entries, skipped, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Log{
		path:      path,
		header:    header,
		entries:   entries,
		persisted: true,
		skipped:   skipped,
	}, nil
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) Header() schema.Header {
	return l.header
}

// SetHeader replaces the in-memory header. The Migration Pipeline uses this
// to bump the version; the file is never rewritten implicitly.
func (l *Log) SetHeader(header schema.Header) {
	l.header = header
}

// Entries returns the in-memory record sequence in append order.
func (l *Log) Entries() []schema.Entry {
	return l.entries
}

// SetEntries replaces the in-memory record sequence after migration.
func (l *Log) SetEntries(entries []schema.Entry) {
	l.entries = entries
}

// SkippedRecords reports how many malformed lines the load dropped.
func (l *Log) SkippedRecords() int {
	return l.skipped
}

// Persisted reports whether the log has reached disk.
func (l *Log) Persisted() bool {
	return l.persisted
}

// Append adds one entry and makes it durable before returning, unless the
// log is still in its lazy in-memory phase. The first entry carrying a
// completed assistant turn starts persistence: the header and every buffered
// entry flush in one batch, and each later append writes exactly one line.
func (l *Log) Append(entry schema.Entry) error {
	l.entries = append(l.entries, entry)
	if !l.persisted {
		if !startsPersistence(entry) {
			return nil
		}
		return l.flush()
	}
	line, err := schema.EncodeLine(entry)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternalFailure, "encode_entry", "", false)
	}
	if err := fsx.AppendLine(l.path, line, FileMode); err != nil {
		return errors.Wrap(err, errors.CategoryIOFailure, "append_entry", "check the session directory is writable", true)
	}
	return nil
}

func (l *Log) flush() error {
	lines := make([][]byte, 0, len(l.entries)+1)
	headerLine, err := schema.EncodeLine(l.header)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternalFailure, "encode_header", "", false)
	}
	lines = append(lines, headerLine)
	for _, entry := range l.entries {
		line, encodeErr := schema.EncodeLine(entry)
		if encodeErr != nil {
			return errors.Wrap(encodeErr, errors.CategoryInternalFailure, "encode_entry", "", false)
		}
		lines = append(lines, line)
	}
	if err := fsx.AppendLines(l.path, lines, FileMode); err != nil {
		return errors.Wrap(err, errors.CategoryIOFailure, "flush_entries", "check the session directory is writable", true)
	}
	l.persisted = true
	return nil
}

func startsPersistence(entry schema.Entry) bool {
	return entry.IsMessageRole(schema.RoleAssistant)
}

// HeaderLine returns the header encoded as one record line.
func (l *Log) HeaderLine() ([]byte, error) {
	line, err := schema.EncodeLine(l.header)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	return line, nil
}
