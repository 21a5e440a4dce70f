package workspace

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/adityaraj-09/insien-editor/workspace/contracts"
)

type memFile struct {
	content      string
	modifiedAtMs int64
}

// MemoryFileService is an in-memory contracts.IFileService. The sync core is
// exercised against it in tests and demos; directories exist implicitly
// through the files beneath them.
type MemoryFileService struct {
	mutex     sync.RWMutex
	files     map[string]memFile
	failReads map[string]bool
}

// NewMemoryFileService creates an empty in-memory file service.
func NewMemoryFileService() *MemoryFileService {
	return &MemoryFileService{
		files:     make(map[string]memFile),
		failReads: make(map[string]bool),
	}
}

// WriteFile stores a file at the given absolute URI.
func (m *MemoryFileService) WriteFile(uri, content string, modifiedAtMs int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.files[uri] = memFile{content: content, modifiedAtMs: modifiedAtMs}
}

// Remove deletes a file.
func (m *MemoryFileService) Remove(uri string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.files, uri)
}

// FailReadsOn makes Read return an error for the given URI, simulating a
// permission failure.
func (m *MemoryFileService) FailReadsOn(uri string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failReads[uri] = true
}

func (m *MemoryFileService) Resolve(uri string) (*contracts.FileStat, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	uri = strings.TrimRight(uri, "/")
	if file, ok := m.files[uri]; ok {
		return &contracts.FileStat{
			IsFile:       true,
			Size:         int64(len(file.content)),
			ModifiedAtMs: file.modifiedAtMs,
		}, nil
	}

	prefix := uri + "/"
	children := make(map[string]bool)
	for path := range m.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		name := rest
		if i := strings.Index(rest, "/"); i >= 0 {
			name = rest[:i]
		}
		children[prefix+name] = true
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("no such file or directory: %s", uri)
	}

	stat := &contracts.FileStat{IsDirectory: true}
	names := make([]string, 0, len(children))
	for child := range children {
		names = append(names, child)
	}
	sort.Strings(names)
	for _, child := range names {
		stat.Children = append(stat.Children, contracts.ChildEntry{Resource: child})
	}
	return stat, nil
}

func (m *MemoryFileService) Read(uri string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.failReads[uri] {
		return "", fmt.Errorf("permission denied: %s", uri)
	}
	file, ok := m.files[uri]
	if !ok {
		return "", fmt.Errorf("no such file: %s", uri)
	}
	return file.content, nil
}
