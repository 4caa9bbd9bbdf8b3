package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/fingerprint"
	"github.com/davidahmann/loom/core/fsx"
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/sessionlog"
	"github.com/davidahmann/loom/core/tree"
)

// Fork writes the root-to-targetID path into a new session file and returns
// its path. The new header records this session as its parent, along with a
// digest of this session's header line so the link survives file renames.
// Bookmarks on copied entries are recreated; everything off the path stays
// behind. An empty destDir places the fork next to the source file.
func (s *Store) Fork(targetID, destDir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.index.Branch(targetID)
	if len(path) == 0 {
		return "", errors.New(
			fmt.Sprintf("fork target %s not found", targetID),
			errors.CategoryInvalidInput, "unknown_target", "pick an entry id from this session")
	}

	headerLine, err := s.headerLine()
	if err != nil {
		return "", err
	}
	digest, err := fingerprint.HeaderDigest(headerLine)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	forkID := uuid.NewString()
	// Rewrite identity fields in place so header fields this code does not
	// model survive the copy.
	forkHeader := headerLine
	for key, value := range map[string]string{
		"id":            forkID,
		"timestamp":     now.Format(schema.TimestampFormat),
		"parentSession": s.log.Path(),
		"parentDigest":  digest,
	} {
		forkHeader, err = sjson.SetBytes(forkHeader, key, value)
		if err != nil {
			return "", errors.Wrap(err, errors.CategoryInternalFailure, "fork_header", "", false)
		}
	}

	lines := make([][]byte, 0, len(path)+2)
	lines = append(lines, forkHeader)

	copied := make(map[string]struct{}, len(path))
	pathIndex := make(map[string]int, len(path))
	for i, entry := range path {
		copied[entry.ID] = struct{}{}
		pathIndex[entry.ID] = i
		line, err := schema.EncodeLine(entry)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}

	// Recreate surviving bookmarks as fresh entries chained past the copied
	// path, ordered by their target's position so the output is stable.
	labels := make(map[string]string)
	for _, entry := range s.log.Entries() {
		if entry.Type != schema.KindLabel {
			continue
		}
		if _, onPath := copied[entry.TargetID]; !onPath {
			continue
		}
		if entry.Label == nil {
			delete(labels, entry.TargetID)
		} else {
			labels[entry.TargetID] = *entry.Label
		}
	}
	targets := make([]string, 0, len(labels))
	for target := range labels {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return pathIndex[targets[i]] < pathIndex[targets[j]] })

	parent := targetID
	for _, target := range targets {
		label := labels[target]
		entry := schema.Entry{
			Type:      schema.KindLabel,
			ID:        tree.GenerateID(copied),
			ParentID:  parent,
			Timestamp: schema.Now(),
			TargetID:  target,
			Label:     &label,
		}
		copied[entry.ID] = struct{}{}
		line, err := schema.EncodeLine(entry)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
		parent = entry.ID
	}

	if destDir == "" {
		destDir = filepath.Dir(s.log.Path())
	}
	forkPath := filepath.Join(destDir, sessionlog.FileName(now, forkID))
	var content []byte
	for _, line := range lines {
		content = append(content, line...)
		content = append(content, '\n')
	}
	if err := fsx.WriteFileAtomic(forkPath, content, 0o600); err != nil {
		return "", err
	}
	s.logger.Info("forked session", "session", s.log.Header().ID, "target", targetID, "fork", forkPath)
	return forkPath, nil
}

// headerLine returns the header exactly as persisted, falling back to a
// fresh encoding when nothing is on disk yet. The digest must match what a
// registry scan of the source file computes.
func (s *Store) headerLine() ([]byte, error) {
	if s.log.Persisted() {
		return sessionlog.RawHeaderLine(s.log.Path())
	}
	return s.log.HeaderLine()
}

// ForkFile forks sourcePath at targetID without keeping the source open.
// A source whose header cannot be read is reported as an empty source: there
// is nothing to fork from.
func ForkFile(sourcePath, targetID, destDir string, options Options) (string, error) {
	store, err := Open(sourcePath, options)
	if err != nil {
		if errors.CategoryOf(err) == errors.CategoryInvalidHeader {
			return "", errors.Wrap(err, errors.CategoryEmptySource, "empty_source",
				"the source file has no readable session header", false)
		}
		return "", err
	}
	return store.Fork(targetID, destDir)
}
