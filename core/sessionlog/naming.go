package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// projectDirSentinel wraps the sanitized working directory so project
	// session directories are recognizable among other files.
	projectDirSentinel = "--"

	fileTimestampFormat = "20060102T150405"
	fileExtension       = ".jsonl"
)

// FileName builds the session file name from a sortable timestamp and the
// session identifier.
func FileName(ts time.Time, sessionID string) string {
	return fmt.Sprintf("%s-%s%s", ts.UTC().Format(fileTimestampFormat), sessionID, fileExtension)
}

// ProjectDirName derives the per-project directory name from a working
// directory path: every non-alphanumeric rune becomes a dash and the result
// is wrapped in the sentinel, so sessions group by originating project.
func ProjectDirName(cwd string) string {
	var builder strings.Builder
	for _, r := range cwd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
		} else {
			builder.WriteByte('-')
		}
	}
	return projectDirSentinel + builder.String() + projectDirSentinel
}

// IsProjectDirName reports whether a directory name was produced by
// ProjectDirName.
func IsProjectDirName(name string) bool {
	return strings.HasPrefix(name, projectDirSentinel) &&
		strings.HasSuffix(name, projectDirSentinel) &&
		len(name) > 2*len(projectDirSentinel)
}

// DefaultBaseDir is the sessions root under the user's home directory.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".loom", "sessions"), nil
}
