package workspace

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/adityaraj-09/insien-editor/workspace/contracts"
)

// IgnoreFileName is the optional per-project ignore file read from the
// workspace root. Patterns use gitignore-style globs with ** support.
const IgnoreFileName = ".insienignore"

// IgnoreMatcher filters traversal paths against user-provided glob patterns.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	glob    string
	dirOnly bool
}

// LoadIgnoreMatcher reads the ignore file under rootURI, if any. A missing or
// unreadable file yields an empty matcher.
func LoadIgnoreMatcher(fs contracts.IFileService, rootURI string) *IgnoreMatcher {
	matcher := &IgnoreMatcher{}

	content, err := fs.Read(strings.TrimRight(rootURI, "/") + "/" + IgnoreFileName)
	if err != nil {
		return matcher
	}

	for _, line := range strings.Split(content, "\n") {
		matcher.AddPattern(line)
	}
	return matcher
}

// AddPattern adds one pattern line. Blank lines and # comments are skipped.
func (m *IgnoreMatcher) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := ignorePattern{}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	p.glob = strings.TrimPrefix(line, "/")

	m.patterns = append(m.patterns, p)
}

// Matches reports whether the relative path is ignored. Directory-only
// patterns match only directories; a pattern matches the whole relative path
// or its base name.
func (m *IgnoreMatcher) Matches(relativePath string, isDir bool) bool {
	if len(m.patterns) == 0 {
		return false
	}

	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(p.glob, relativePath); ok {
			return true
		}
		// Every pattern is also tried against the base name, the way gitignore
		// treats "*.tmp"; a leading "/" was stripped and does not anchor.
		if ok, _ := doublestar.Match(p.glob, baseName(relativePath)); ok {
			return true
		}
	}
	return false
}
