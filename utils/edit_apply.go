package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adityaraj-09/insien-editor/backend"
)

// ApplyEdit applies one server-proposed edit beneath root. Creates and
// modifications write the full new content; deletes remove the file and any
// directories left empty behind it.
func ApplyEdit(root string, edit backend.Edit) error {
	if strings.Contains(edit.FilePath, "..") {
		return fmt.Errorf("refusing path escaping the workspace: %s", edit.FilePath)
	}
	target := filepath.Join(root, filepath.FromSlash(edit.FilePath))

	switch edit.Type {
	case backend.EditCreate, backend.EditModify:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating directories for %s: %w", edit.FilePath, err)
		}
		if err := os.WriteFile(target, []byte(edit.NewContent), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", edit.FilePath, err)
		}
		return nil

	case backend.EditDelete:
		if err := os.Remove(target); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("deleting %s: %w", edit.FilePath, err)
		}
		removeEmptyParents(root, filepath.Dir(target))
		return nil

	default:
		return fmt.Errorf("unknown edit type %q", edit.Type)
	}
}

// removeEmptyParents prunes empty directories up to, but never including, the
// workspace root.
func removeEmptyParents(root, dir string) {
	for dir != root && strings.HasPrefix(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
