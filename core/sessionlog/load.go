package sessionlog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/schema"
)

// headerProbeBytes bounds the partial read ValidateHeader performs. Real
// headers are well under this; anything larger is not a session file.
const headerProbeBytes = 512

// LoadFile reads one session file: the header from record 0, then every
// entry record in order. A record that fails to parse is a crash artifact
// and is skipped, never fatal; the skip count is returned so callers can
// surface the degradation. A missing or invalid header fails the whole load
// since the file cannot be attributed to any session.
func LoadFile(path string) (schema.Header, []schema.Entry, int, error) {
	// #nosec G304 -- session path comes from the registry or the caller.
	raw, err := os.ReadFile(path)
	if err != nil {
		return schema.Header{}, nil, 0, errors.Wrap(err, errors.CategoryIOFailure, "read_session", "", true)
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var header schema.Header
	sawHeader := false
	entries := make([]schema.Entry, 0)
	skipped := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !sawHeader {
			decoded, headerErr := schema.DecodeHeader(line)
			if headerErr != nil {
				return schema.Header{}, nil, 0, errors.Wrap(
					fmt.Errorf("record 0: %w", headerErr),
					errors.CategoryInvalidHeader, "invalid_header", "the file is not a session log", false)
			}
			header = decoded
			sawHeader = true
			continue
		}
		entry, entryErr := schema.DecodeEntry(line)
		if entryErr != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return schema.Header{}, nil, 0, errors.Wrap(err, errors.CategoryIOFailure, "scan_session", "", true)
	}
	if !sawHeader {
		return schema.Header{}, nil, 0, errors.New(
			"session file has no header record", errors.CategoryInvalidHeader, "invalid_header", "the file is not a session log")
	}
	return header, entries, skipped, nil
}

// RawHeaderLine returns the bytes of record 0 exactly as stored, without
// decoding. Fingerprinting uses this so a header digest reflects the file's
// own bytes, not a re-encode.
func RawHeaderLine(path string) ([]byte, error) {
	// #nosec G304 -- session path comes from the registry or the caller.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryIOFailure, "read_session", "", true)
	}
	line := raw
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		line = raw[:idx]
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errors.New("empty session file", errors.CategoryInvalidHeader, "invalid_header", "")
	}
	return line, nil
}

// ValidateHeader confirms a file is a well-formed session log by reading at
// most the first few hundred bytes, without loading the file. The registry
// uses this to filter candidate files cheaply.
func ValidateHeader(path string) error {
	// #nosec G304 -- candidate path comes from a directory scan.
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, errors.CategoryIOFailure, "open_session", "", true)
	}
	defer func() {
		_ = file.Close()
	}()

	probe := make([]byte, headerProbeBytes)
	n, err := file.Read(probe)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, errors.CategoryIOFailure, "read_session", "", true)
	}
	probe = probe[:n]

	line := probe
	if idx := bytes.IndexByte(probe, '\n'); idx >= 0 {
		line = probe[:idx]
	} else if n == headerProbeBytes {
		// No newline inside the probe window: record 0 is too large to be a
		// session header.
		return errors.New("header record exceeds probe window", errors.CategoryInvalidHeader, "invalid_header", "")
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return errors.New("empty session file", errors.CategoryInvalidHeader, "invalid_header", "")
	}
	if !gjson.ValidBytes(line) {
		return errors.New("header record is not valid JSON", errors.CategoryInvalidHeader, "invalid_header", "")
	}
	fields := gjson.GetManyBytes(line, "type", "version", "id")
	if fields[0].String() != schema.HeaderType {
		return errors.New("record 0 is not a session header", errors.CategoryInvalidHeader, "invalid_header", "")
	}
	version := fields[1].Int()
	if version < 1 || version > schema.CurrentVersion {
		return errors.New(fmt.Sprintf("unsupported session version %d", version), errors.CategoryInvalidHeader, "invalid_header", "")
	}
	if fields[2].String() == "" {
		return errors.New("header missing session id", errors.CategoryInvalidHeader, "invalid_header", "")
	}
	return nil
}
