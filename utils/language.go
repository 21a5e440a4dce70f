package utils

import (
	"path/filepath"
	"strings"
)

// GetSupportedLanguage maps a file path to the language name used for context
// extraction and highlighting. Unknown extensions return "".
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	case ".cs":
		return "csharp"
	case ".rs":
		return "rust"
	case ".rb":
		return "ruby"
	case ".php":
		return "php"
	case ".sh":
		return "bash"
	case ".sql":
		return "sql"
	case ".html":
		return "html"
	case ".css", ".scss":
		return "css"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".md":
		return "markdown"
	default:
		return ""
	}
}

// DetectLanguageFromCodeBlock picks the language tag of the first fenced code
// block in a chunk of markdown, for highlighting streamed replies.
func DetectLanguageFromCodeBlock(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") && len(trimmed) > 3 {
			return strings.TrimPrefix(trimmed, "```")
		}
	}
	return "markdown"
}
