package merkle

import (
	"sort"
	"strings"
	"time"
)

// FileInput is one collected file handed to the builder. Size and LastModified
// (milliseconds since epoch) are optional; content length and the builder clock
// fill the gaps.
type FileInput struct {
	Path         string
	Content      string
	Size         *int64
	LastModified *int64
}

// Builder turns a flat file list into a hashed directory tree. The clock is
// injectable so tree construction is deterministic under test.
type Builder struct {
	Now func() time.Time
}

// NewBuilder returns a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

// treeEntry is the intermediate nesting structure before hashing.
type treeEntry struct {
	file     *FileInput
	children map[string]*treeEntry
}

func newDirEntry() *treeEntry {
	return &treeEntry{children: make(map[string]*treeEntry)}
}

// BuildTree nests the files into directories, then hashes bottom-up.
// An empty input yields the root directory node hashing the empty string.
// A later file at an already-seen path overwrites the earlier one.
func (b *Builder) BuildTree(files []FileInput) *Node {
	root := newDirEntry()

	for i := range files {
		file := files[i]
		parts := strings.Split(file.Path, "/")
		current := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := current.children[part]
			if !ok || next.children == nil {
				next = newDirEntry()
				current.children[part] = next
			}
			current = next
		}
		leaf := parts[len(parts)-1]
		entry, ok := current.children[leaf]
		if !ok {
			entry = &treeEntry{}
			current.children[leaf] = entry
		}
		entry.file = &file
		entry.children = nil
	}

	return b.hashEntry(RootPath, root)
}

func (b *Builder) hashEntry(path string, entry *treeEntry) *Node {
	if entry.file != nil {
		return b.fileNode(path, entry.file)
	}

	children := make([]*Node, 0, len(entry.children))
	for name, child := range entry.children {
		childPath := name
		if path != RootPath {
			childPath = path + "/" + name
		}
		children = append(children, b.hashEntry(childPath, child))
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].Path < children[j].Path
	})

	refs := make([]ChildRef, len(children))
	for i, child := range children {
		refs[i] = ChildRef{Hash: child.Hash, Path: child.Path}
	}

	now := b.Now().Unix()
	return &Node{
		Hash:       HashDirectory(refs),
		Type:       DirectoryNode,
		Path:       path,
		Size:       0,
		ModifiedAt: now,
		CreatedAt:  now,
		IsLeaf:     false,
		Children:   children,
	}
}

func (b *Builder) fileNode(path string, file *FileInput) *Node {
	size := int64(len(file.Content))
	if file.Size != nil {
		size = *file.Size
	}

	modified := b.Now().UnixMilli()
	if file.LastModified != nil {
		modified = *file.LastModified
	}
	seconds := modified / 1000

	return &Node{
		Hash:       HashBytes(file.Content),
		Type:       FileNode,
		Path:       path,
		Size:       size,
		ModifiedAt: seconds,
		CreatedAt:  seconds,
		IsLeaf:     true,
	}
}
