package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adityaraj-09/insien-editor/backend"
)

func TestStatsTracker_MirrorsServerCounters(t *testing.T) {
	stats := NewStatsTracker()

	stats.RecordProgress(ProgressEvent{Progress: backend.IngestionProgress{Total: 10, Processed: 4, Chunks: 30}})
	stats.RecordProgress(ProgressEvent{Progress: backend.IngestionProgress{Total: 10, Processed: 10, Chunks: 80}})
	stats.RecordComplete(CompleteEvent{TotalFiles: 10, TotalChunks: 80})
	stats.RecordError(ErrorEvent{})

	assert.Equal(t, "Files: 10 - Chunks: 80 - Syncs: 1 - Failures: 1", stats.Summary())
}
