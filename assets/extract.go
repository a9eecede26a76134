// Package assets finds asset references embedded in serialized entry
// content. Entries are scanned as whole serialized documents so that
// references are caught at any nesting depth, and file-by-file so that
// large entry sets never load into memory at once.
package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Two independent patterns locate asset identifiers in serialized entries.
//
// inlineEmbedPattern matches the embedded media marker as it appears
// escaped inside serialized rich-text HTML; the identifier is capture
// group 1.
//
// hostedURLPattern matches fully-qualified asset download URLs. The host
// may carry a regional prefix (EU, Azure, GCP variants) or none; the
// identifier is always the path segment after /v3/assets/<stack>/, so it
// sits at a fixed capture index regardless of which prefix matched.
var (
	inlineEmbedPattern = regexp.MustCompile(`asset_uid=\\"([a-zA-Z0-9_]+)\\"`)
	hostedURLPattern   = regexp.MustCompile(`https://(eu-|azure-na-|azure-eu-|gcp-na-|gcp-eu-)?(images|assets)\.contentstack\.(io|com)/v3/assets/([a-zA-Z0-9_]+)/([a-zA-Z0-9_]+)/`)
)

// hostedURLUIDIndex is the capture group holding the asset UID in
// hostedURLPattern.
const hostedURLUIDIndex = 5

// Set is a running collection of discovered asset UIDs. It accumulates
// matches across files; one Set spans one extraction pass.
type Set struct {
	uids map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{uids: make(map[string]struct{})}
}

// Add records one asset UID.
func (s *Set) Add(uid string) {
	if uid != "" {
		s.uids[uid] = struct{}{}
	}
}

// Len reports the number of distinct UIDs collected.
func (s *Set) Len() int { return len(s.uids) }

// UIDs returns the collected identifiers, sorted.
func (s *Set) UIDs() []string {
	if len(s.uids) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.uids))
	for uid := range s.uids {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// ExtractFromString scans one serialized document with both patterns and
// records every identifier into s.
func (s *Set) ExtractFromString(content string) {
	for _, m := range inlineEmbedPattern.FindAllStringSubmatch(content, -1) {
		s.Add(m[1])
	}
	for _, m := range hostedURLPattern.FindAllStringSubmatch(content, -1) {
		s.Add(m[hostedURLUIDIndex])
	}
}

// ExtractFromString returns the distinct asset UIDs found in one
// serialized document, sorted.
func ExtractFromString(content string) []string {
	s := NewSet()
	s.ExtractFromString(content)
	return s.UIDs()
}

// Extractor walks exported entry files and accumulates asset references.
type Extractor struct {
	log *slog.Logger
}

// NewExtractor returns an Extractor logging through log.
func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// ExtractFromDir scans every .json file under dir (recursively), one file
// at a time, and returns the accumulated Set. Files that cannot be read
// or parsed are skipped with a warning; only a missing root directory is
// an error.
func (e *Extractor) ExtractFromDir(dir string) (*Set, error) {
	set := NewSet()

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			e.log.Warn("skipping unreadable entry file", "path", path, "error", err)
			return nil
		}
		if !json.Valid(data) {
			e.log.Warn("skipping malformed entry file", "path", path)
			return nil
		}
		set.ExtractFromString(string(data))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning entries under %s: %w", dir, err)
	}
	return set, nil
}
