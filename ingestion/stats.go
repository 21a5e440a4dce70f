package ingestion

import (
	"fmt"
	"sync"

	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
)

// StatsTracker accumulates the server-reported counters over a session so the
// CLI can show a closing summary. Counters mirror the latest progress or
// completion event; the processed count is always the server's.
type StatsTracker struct {
	mutex          sync.Mutex
	totalFiles     int
	processedFiles int
	totalChunks    int
	syncs          int
	failures       int
}

// NewStatsTracker returns an empty tracker.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{}
}

// RecordProgress updates the counters from a progress event.
func (s *StatsTracker) RecordProgress(event ProgressEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.totalFiles = event.Progress.Total
	s.processedFiles = event.Progress.Processed
	s.totalChunks = event.Progress.Chunks
}

// RecordComplete marks one finished sync.
func (s *StatsTracker) RecordComplete(event CompleteEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.syncs++
	if event.TotalFiles > 0 {
		s.totalFiles = event.TotalFiles
	}
	if event.TotalChunks > 0 {
		s.totalChunks = event.TotalChunks
	}
}

// RecordError marks one failed step.
func (s *StatsTracker) RecordError(ErrorEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.failures++
}

// Summary returns a one-line report of the session.
func (s *StatsTracker) Summary() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return fmt.Sprintf("Files: %d - Chunks: %d - Syncs: %d - Failures: %d",
		s.totalFiles, s.totalChunks, s.syncs, s.failures)
}

// DisplayStats prints the session summary in a box.
func (s *StatsTracker) DisplayStats() {
	fmt.Println(lipgloss.BoxStyle.Render(s.Summary()))
}
