// Package registry scans session directories and builds lightweight
// metadata for listing. It leans on the entry log's cheap header validation
// to filter candidates and tolerates everything the loader tolerates.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/fingerprint"
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/sessionlog"
)

const previewMaxChars = 80

// Session is the listing metadata for one session file.
type Session struct {
	Path         string    `json:"path"`
	ID           string    `json:"id"`
	Version      int       `json:"version"`
	Cwd          string    `json:"cwd"`
	Created      string    `json:"created"`
	Modified     time.Time `json:"modified"`
	Name         string    `json:"name,omitempty"`
	Preview      string    `json:"preview,omitempty"`
	Entries      int       `json:"entries"`
	Skipped      int       `json:"skipped,omitempty"`
	HeaderDigest string    `json:"header_digest,omitempty"`
}

// ListOptions select what to scan. Dir names one session directory; All
// walks every project directory under BaseDir instead.
type ListOptions struct {
	Dir     string
	BaseDir string
	All     bool
	// Progress, when set, receives each session as soon as its metadata is
	// built, before the full listing returns.
	Progress func(Session)
}

// List scans for session files, skipping anything that is not a valid
// session log, and returns metadata sorted newest first.
func List(options ListOptions) ([]Session, error) {
	dirs, err := resolveDirs(options)
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, 0)
	for _, dir := range dirs {
		fileEntries, readErr := os.ReadDir(dir)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return nil, errors.Wrap(fmt.Errorf("read session dir: %w", readErr), errors.CategoryIOFailure, "read_dir", "", true)
		}
		for _, fileEntry := range fileEntries {
			if fileEntry.IsDir() || !strings.HasSuffix(fileEntry.Name(), ".jsonl") {
				continue
			}
			path := filepath.Join(dir, fileEntry.Name())
			if sessionlog.ValidateHeader(path) != nil {
				// Not a session log; a normal outcome while listing.
				continue
			}
			session, inspectErr := Inspect(path)
			if inspectErr != nil {
				continue
			}
			sessions = append(sessions, session)
			if options.Progress != nil {
				options.Progress(session)
			}
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Modified.After(sessions[j].Modified)
	})
	return sessions, nil
}

// Inspect builds listing metadata for one session file.
func Inspect(path string) (Session, error) {
	header, entries, skipped, err := sessionlog.LoadFile(path)
	if err != nil {
		return Session{}, err
	}
	session := Session{
		Path:    path,
		ID:      header.ID,
		Version: header.Version,
		Cwd:     header.Cwd,
		Created: header.Timestamp,
		Entries: len(entries),
		Skipped: skipped,
	}
	if info, statErr := os.Stat(path); statErr == nil {
		session.Modified = info.ModTime().UTC()
	}
	if headerLine, rawErr := sessionlog.RawHeaderLine(path); rawErr == nil {
		if digest, digestErr := fingerprint.HeaderDigest(headerLine); digestErr == nil {
			session.HeaderDigest = digest
		}
	}
	for _, entry := range entries {
		switch {
		case entry.Type == schema.KindSessionInfo:
			// The most recent name wins.
			session.Name = entry.Name
		case session.Preview == "" && entry.IsMessageRole(schema.RoleUser):
			session.Preview = preview(entry.Message.TextContent())
		}
	}
	return session, nil
}

func resolveDirs(options ListOptions) ([]string, error) {
	if options.Dir != "" {
		return []string{options.Dir}, nil
	}
	if !options.All {
		return nil, errors.New("either Dir or All must be set", errors.CategoryInvalidInput, "invalid_list_options", "")
	}
	baseDir := options.BaseDir
	if baseDir == "" {
		resolved, err := sessionlog.DefaultBaseDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryIOFailure, "resolve_base_dir", "", false)
		}
		baseDir = resolved
	}
	projectEntries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(fmt.Errorf("read sessions base dir: %w", err), errors.CategoryIOFailure, "read_dir", "", true)
	}
	dirs := make([]string, 0, len(projectEntries))
	for _, projectEntry := range projectEntries {
		if !projectEntry.IsDir() || !sessionlog.IsProjectDirName(projectEntry.Name()) {
			continue
		}
		dirs = append(dirs, filepath.Join(baseDir, projectEntry.Name()))
	}
	return dirs, nil
}

func preview(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if len(text) <= previewMaxChars {
		return text
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := previewMaxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
