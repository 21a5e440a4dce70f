package workspace

import (
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/adityaraj-09/insien-editor/workspace/contracts"
)

// MaxFileSize caps collected files at 1 MiB; anything larger is skipped.
const MaxFileSize = 1024 * 1024

// skippedDirectories are pruned wholesale during traversal.
var skippedDirectories = map[string]bool{
	"node_modules": true, ".git": true, ".next": true, "dist": true,
	"build": true, "out": true, "coverage": true, ".cache": true,
	"vendor": true, "target": true, "__pycache__": true,
	".pytest_cache": true, ".venv": true, "venv": true,
}

// skippedExtensions are binary or noise suffixes rejected before the allow
// check. The multi-part entries (.min.js, .min.css) are matched as suffixes.
var skippedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".webp": true, ".mp4": true, ".mov": true, ".avi": true,
	".mkv": true, ".mp3": true, ".wav": true, ".ogg": true, ".zip": true,
	".tar": true, ".gz": true, ".rar": true, ".7z": true, ".pdf": true,
	".doc": true, ".docx": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".lock": true, ".log": true, ".min.js": true,
	".min.css": true, ".map": true,
}

// codeExtensions is the allow set; a file must land here to be collected.
var codeExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".py": true,
	".java": true, ".cpp": true, ".c": true, ".h": true, ".hpp": true,
	".cs": true, ".go": true, ".rs": true, ".rb": true, ".php": true,
	".swift": true, ".kt": true, ".scala": true, ".sh": true, ".sql": true,
	".html": true, ".css": true, ".scss": true, ".json": true, ".yaml": true,
	".yml": true, ".xml": true, ".md": true, ".txt": true,
}

// CollectedFile is one file gathered for ingestion. Path is relative to the
// traversal root, forward-slash separated, no leading slash.
type CollectedFile struct {
	Path           string
	Content        string
	Size           int64
	LastModifiedMs int64
}

// Collector walks a root URI through the host file service and gathers the
// ingestable files. An optional ignore matcher and content cache refine it.
type Collector struct {
	FS     contracts.IFileService
	Ignore *IgnoreMatcher
	Cache  *ContentCache
}

// NewCollector creates a collector over the given file service.
func NewCollector(fs contracts.IFileService) *Collector {
	return &Collector{FS: fs}
}

// Collect walks rootURI depth-first and returns every collectible file.
// Unreadable entries are logged and skipped, never fatal.
func (c *Collector) Collect(rootURI string) ([]CollectedFile, error) {
	rootStat, err := c.FS.Resolve(rootURI)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	if !rootStat.IsDirectory {
		return nil, fmt.Errorf("workspace root %s is not a directory", rootURI)
	}

	if c.Ignore == nil {
		c.Ignore = LoadIgnoreMatcher(c.FS, rootURI)
	}

	var files []CollectedFile
	c.walk(rootURI, "", rootStat, &files)
	return files, nil
}

func (c *Collector) walk(uri, relativePath string, stat *contracts.FileStat, files *[]CollectedFile) {
	for _, child := range stat.Children {
		name := baseName(child.Resource)
		childRelative := name
		if relativePath != "" {
			childRelative = relativePath + "/" + name
		}

		childStat, err := c.FS.Resolve(child.Resource)
		if err != nil {
			log.Printf("warning: skipping unreadable entry %s: %v", childRelative, err)
			continue
		}

		switch {
		case childStat.IsDirectory:
			if skippedDirectories[name] {
				continue
			}
			if c.Ignore.Matches(childRelative, true) {
				continue
			}
			c.walk(child.Resource, childRelative, childStat, files)

		case childStat.IsFile:
			if !IsCollectibleFile(name) {
				continue
			}
			if childStat.Size > MaxFileSize {
				continue
			}
			if c.Ignore.Matches(childRelative, false) {
				continue
			}

			content, ok := c.readContent(child.Resource, childStat)
			if !ok {
				log.Printf("warning: skipping unreadable file %s", childRelative)
				continue
			}

			*files = append(*files, CollectedFile{
				Path:           childRelative,
				Content:        content,
				Size:           childStat.Size,
				LastModifiedMs: childStat.ModifiedAtMs,
			})
		}
	}
}

func (c *Collector) readContent(uri string, stat *contracts.FileStat) (string, bool) {
	if c.Cache != nil {
		if content, found := c.Cache.Get(uri, stat.Size, stat.ModifiedAtMs); found {
			return content, true
		}
	}

	content, err := c.FS.Read(uri)
	if err != nil {
		return "", false
	}

	if c.Cache != nil {
		c.Cache.Set(uri, stat.Size, stat.ModifiedAtMs, content)
	}
	return content, true
}

// IsCollectibleFile applies the extension deny and allow sets to a base name.
func IsCollectibleFile(name string) bool {
	lower := strings.ToLower(name)

	for suffix := range skippedExtensions {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	dot := strings.LastIndex(lower, ".")
	if dot < 0 {
		return false
	}
	return codeExtensions[lower[dot:]]
}

// baseName is path.Base over both slash styles; host URIs may carry either.
func baseName(resource string) string {
	normalized := strings.ReplaceAll(resource, "\\", "/")
	return path.Base(normalized)
}
