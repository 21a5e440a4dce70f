// Package workspace implements file collection for ingestion: a local-disk
// file service, the traversal filters, and an optional content cache.
package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/adityaraj-09/insien-editor/workspace/contracts"
)

// LocalFileService serves the contracts.IFileService interface straight from
// the OS filesystem. URIs are plain absolute paths.
type LocalFileService struct{}

// NewLocalFileService returns a filesystem-backed file service.
func NewLocalFileService() *LocalFileService {
	return &LocalFileService{}
}

func (s *LocalFileService) Resolve(uri string) (*contracts.FileStat, error) {
	info, err := os.Stat(uri)
	if err != nil {
		return nil, err
	}

	stat := &contracts.FileStat{
		IsFile:       info.Mode().IsRegular(),
		IsDirectory:  info.IsDir(),
		Size:         info.Size(),
		ModifiedAtMs: info.ModTime().UnixMilli(),
	}

	if info.IsDir() {
		entries, err := os.ReadDir(uri)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			stat.Children = append(stat.Children, contracts.ChildEntry{
				Resource: filepath.Join(uri, entry.Name()),
			})
		}
	}
	return stat, nil
}

func (s *LocalFileService) Read(uri string) (string, error) {
	content, err := os.ReadFile(uri)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// StaticWorkspace is a single-root workspace, the shape the CLI runs with.
// Change handlers fire when SetRoots swaps the root set.
type StaticWorkspace struct {
	mutex    sync.RWMutex
	roots    []string
	handlers []func()
}

// NewStaticWorkspace creates a workspace over the given roots.
func NewStaticWorkspace(roots ...string) *StaticWorkspace {
	return &StaticWorkspace{roots: roots}
}

func (w *StaticWorkspace) Roots() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	out := make([]string, len(w.roots))
	copy(out, w.roots)
	return out
}

func (w *StaticWorkspace) OnWorkspaceChanged(handler func()) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.handlers = append(w.handlers, handler)
}

// SetRoots replaces the root set and notifies subscribers.
func (w *StaticWorkspace) SetRoots(roots ...string) {
	w.mutex.Lock()
	w.roots = roots
	handlers := make([]func(), len(w.handlers))
	copy(handlers, w.handlers)
	w.mutex.Unlock()

	for _, handler := range handlers {
		handler()
	}
}
