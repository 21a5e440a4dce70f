package workspace

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectedPaths(files []CollectedFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	return paths
}

func TestCollector_RelativeForwardSlashPaths(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/main.go", "package main", 1000)
	fs.WriteFile("/proj/src/util/helper.ts", "export {}", 2000)

	files, err := NewCollector(fs).Collect("/proj")
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go", "src/util/helper.ts"}, collectedPaths(files))
	for _, f := range files {
		assert.NotContains(t, f.Path, "\\")
		assert.False(t, f.Path[0] == '/', "no leading slash on %s", f.Path)
	}
}

func TestCollector_CarriesContentSizeAndMtime(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/a.py", "print('hi')", 123456789)

	files, err := NewCollector(fs).Collect("/proj")
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "print('hi')", files[0].Content)
	assert.EqualValues(t, len("print('hi')"), files[0].Size)
	assert.EqualValues(t, 123456789, files[0].LastModifiedMs)
}

func TestCollector_SkipsBlockedDirectories(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/keep.go", "x", 0)
	fs.WriteFile("/proj/node_modules/lib/index.js", "x", 0)
	fs.WriteFile("/proj/.git/config.txt", "x", 0)
	fs.WriteFile("/proj/vendor/dep/dep.go", "x", 0)
	fs.WriteFile("/proj/src/__pycache__/mod.py", "x", 0)
	fs.WriteFile("/proj/src/ok.py", "x", 0)

	files, err := NewCollector(fs).Collect("/proj")
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.go", "src/ok.py"}, collectedPaths(files))
}

func TestCollector_SkipsOversizedFiles(t *testing.T) {
	big := make([]byte, MaxFileSize+1)
	for i := range big {
		big[i] = 'a'
	}

	fs := NewMemoryFileService()
	fs.WriteFile("/proj/big.txt", string(big), 0)
	fs.WriteFile("/proj/small.txt", "ok", 0)

	files, err := NewCollector(fs).Collect("/proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"small.txt"}, collectedPaths(files))
}

func TestCollector_UnreadableFileSkippedNotFatal(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/good.go", "x", 0)
	fs.WriteFile("/proj/bad.go", "x", 0)
	fs.FailReadsOn("/proj/bad.go")

	files, err := NewCollector(fs).Collect("/proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"good.go"}, collectedPaths(files))
}

func TestCollector_RootMustBeDirectory(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/only.go", "x", 0)

	_, err := NewCollector(fs).Collect("/proj/only.go")
	assert.Error(t, err)
}

func TestIsCollectibleFile(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"main.go", true},
		{"app.tsx", true},
		{"style.scss", true},
		{"README.md", true},
		{"config.YAML", true},
		{"query.sql", true},
		{"photo.png", false},
		{"archive.tar.gz", false},
		{"binary.exe", false},
		{"yarn.lock", false},
		{"debug.log", false},
		{"bundle.min.js", false},
		{"styles.min.css", false},
		{"app.js.map", false},
		{"Makefile", false},
		{"LICENSE", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, IsCollectibleFile(tc.name), "file %s", tc.name)
	}
}

func TestCollector_HonorsIgnoreFile(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/"+IgnoreFileName, "generated/\n*.tmp.ts\n# comment\n\nsecret.json\n", 0)
	fs.WriteFile("/proj/keep.go", "x", 0)
	fs.WriteFile("/proj/generated/gen.go", "x", 0)
	fs.WriteFile("/proj/src/thing.tmp.ts", "x", 0)
	fs.WriteFile("/proj/secret.json", "x", 0)

	files, err := NewCollector(fs).Collect("/proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go"}, collectedPaths(files))
}

func TestIgnoreMatcher_DirOnlyPatterns(t *testing.T) {
	m := &IgnoreMatcher{}
	m.AddPattern("build/")

	assert.True(t, m.Matches("build", true))
	assert.False(t, m.Matches("build", false))
}

func TestIgnoreMatcher_Doublestar(t *testing.T) {
	m := &IgnoreMatcher{}
	m.AddPattern("**/fixtures/**")

	assert.True(t, m.Matches("test/fixtures/data.json", false))
	assert.False(t, m.Matches("src/main.go", false))
}

func TestCollector_CacheAvoidsRereads(t *testing.T) {
	fs := NewMemoryFileService()
	fs.WriteFile("/proj/a.go", "package a", 500)

	cache := NewContentCache()
	collector := NewCollector(fs)
	collector.Cache = cache

	_, err := collector.Collect("/proj")
	require.NoError(t, err)

	// Second pass hits the cache; reads through a now-failing backend succeed.
	fs.FailReadsOn("/proj/a.go")
	files, err := collector.Collect("/proj")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "package a", files[0].Content)

	hits, _ := cache.Stats()
	assert.EqualValues(t, 1, hits)
}

func TestContentCache_InvalidatedOnMtimeChange(t *testing.T) {
	cache := NewContentCache()
	cache.Set("/proj/a.go", 9, 500, "old")

	_, found := cache.Get("/proj/a.go", 9, 600)
	assert.False(t, found)

	content, found := cache.Get("/proj/a.go", 9, 500)
	assert.True(t, found)
	assert.Equal(t, "old", content)
}
