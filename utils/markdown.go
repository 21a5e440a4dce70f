package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderMarkdown prints a chunk of streamed markdown with syntax
// highlighting. Diff-style lines inside fenced blocks are colored directly;
// everything else goes through chroma. Rendering stops on ctx cancellation.
func RenderMarkdown(ctx context.Context, content, language, theme string) error {
	insideCodeBlock := false

	for _, line := range strings.Split(content, "\n") {
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		default:
		}

		if strings.HasPrefix(line, "```") {
			insideCodeBlock = !insideCodeBlock
		}

		switch {
		case insideCodeBlock && strings.HasPrefix(line, "+"):
			fmt.Print("\x1b[92m" + line + "\x1b[0m\n")
		case insideCodeBlock && strings.HasPrefix(line, "-"):
			fmt.Print("\x1b[91m" + line + "\x1b[0m\n")
		default:
			var buf bytes.Buffer
			if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
				return fmt.Errorf("rendering markdown: %w", err)
			}
			fmt.Print(buf.String())
		}
	}
	return nil
}
