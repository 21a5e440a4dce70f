// Package code_analyzer extracts declaration-level summaries from source
// files so chat requests can attach compact file context instead of full
// bodies.
package code_analyzer

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/adityaraj-09/insien-editor/embed_data"
	"github.com/adityaraj-09/insien-editor/utils"
)

// ContextExtractor summarizes source files for chat context.
type ContextExtractor struct {
	Cwd string
}

// NewContextExtractor creates an extractor rooted at cwd.
func NewContextExtractor(cwd string) *ContextExtractor {
	return &ContextExtractor{Cwd: cwd}
}

// Summarize returns the tagged declarations of one file. Files in languages
// without a grammar fall back to the path plus first line.
func (e *ContextExtractor) Summarize(filePath string, sourceCode []byte) []string {
	var elements []string
	elements = append(elements, filePath)

	var lang *sitter.Language
	var query []byte

	switch utils.GetSupportedLanguage(filePath) {
	case "go":
		lang = golang.GetLanguage()
		query = embed_data.GoQuery
	case "python":
		lang = python.GetLanguage()
		query = embed_data.PythonQuery
	case "javascript":
		lang = javascript.GetLanguage()
		query = embed_data.JavascriptQuery
	case "typescript":
		lang = typescript.GetLanguage()
		query = embed_data.TypescriptQuery
	case "java":
		lang = java.GetLanguage()
		query = embed_data.JavaQuery
	case "csharp":
		lang = csharp.GetLanguage()
		query = embed_data.CSharpQuery
	default:
		lines := strings.Split(string(sourceCode), "\n")
		return append(elements, lines[0])
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, sourceCode)

	queries := make(map[string]string)
	if err := json.Unmarshal(query, &queries); err != nil {
		log.Printf("warning: bad query bundle for %s: %v", filePath, err)
		return elements
	}

	for tag, queryStr := range queries {
		compiled, err := sitter.NewQuery([]byte(queryStr), lang)
		if err != nil {
			log.Printf("warning: bad query %q: %v", tag, err)
			continue
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(compiled, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", tag, capture.Node.Content(sourceCode)))
			}
		}
	}

	return elements
}

// BuildContextBlock reads each requested file under the extractor's root and
// renders it as a context section. With summarize set, declaration summaries
// stand in for full bodies. Unreadable files are skipped.
func (e *ContextExtractor) BuildContextBlock(relativePaths []string, summarize bool) string {
	var sections []string

	for _, relativePath := range relativePaths {
		content, err := os.ReadFile(filepath.Join(e.Cwd, relativePath))
		if err != nil {
			log.Printf("warning: skipping context file %s: %v", relativePath, err)
			continue
		}

		body := string(content)
		if summarize {
			body = strings.Join(e.Summarize(relativePath, content), "\n")
		}
		sections = append(sections, fmt.Sprintf("**File: %s**\n\n%s", relativePath, body))
	}

	return strings.Join(sections, "\n---------\n\n")
}
