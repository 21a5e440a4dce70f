package ingestion

import (
	"sync"

	"github.com/adityaraj-09/insien-editor/backend"
)

// ProgressEvent is one ingestion progress sample, fired after every uploaded
// batch and every poll tick. Processed and Chunks are the server-reported
// values; after an uploaded batch, Total is the collected file count and
// Percent is computed from Processed and Total.
type ProgressEvent struct {
	ProjectID string
	Progress  backend.IngestionProgress
}

// CompleteEvent fires once when an ingestion or sync finishes.
type CompleteEvent struct {
	ProjectID   string
	TotalFiles  int
	TotalChunks int
}

// ErrorEvent fires when an ingestion step fails. State is left untouched;
// retries are caller-driven.
type ErrorEvent struct {
	ProjectID string
	Err       error
}

// events is the orchestrator's observable surface: single writer, any number
// of subscribers, fired in subscription order.
type events struct {
	mutex           sync.RWMutex
	projectChanged  []func(*backend.LocalProjectInfo)
	progress        []func(ProgressEvent)
	complete        []func(CompleteEvent)
	ingestionErrors []func(ErrorEvent)
}

// OnProjectChanged subscribes to active-project changes. A nil project means
// the workspace closed with no root.
func (e *events) OnProjectChanged(handler func(*backend.LocalProjectInfo)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.projectChanged = append(e.projectChanged, handler)
}

// OnIngestionProgress subscribes to progress samples.
func (e *events) OnIngestionProgress(handler func(ProgressEvent)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.progress = append(e.progress, handler)
}

// OnIngestionComplete subscribes to completion events.
func (e *events) OnIngestionComplete(handler func(CompleteEvent)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.complete = append(e.complete, handler)
}

// OnIngestionError subscribes to ingestion failures.
func (e *events) OnIngestionError(handler func(ErrorEvent)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.ingestionErrors = append(e.ingestionErrors, handler)
}

func (e *events) emitProjectChanged(project *backend.LocalProjectInfo) {
	e.mutex.RLock()
	handlers := append([]func(*backend.LocalProjectInfo){}, e.projectChanged...)
	e.mutex.RUnlock()
	for _, handler := range handlers {
		handler(project)
	}
}

func (e *events) emitProgress(event ProgressEvent) {
	e.mutex.RLock()
	handlers := append([]func(ProgressEvent){}, e.progress...)
	e.mutex.RUnlock()
	for _, handler := range handlers {
		handler(event)
	}
}

func (e *events) emitComplete(event CompleteEvent) {
	e.mutex.RLock()
	handlers := append([]func(CompleteEvent){}, e.complete...)
	e.mutex.RUnlock()
	for _, handler := range handlers {
		handler(event)
	}
}

func (e *events) emitError(event ErrorEvent) {
	e.mutex.RLock()
	handlers := append([]func(ErrorEvent){}, e.ingestionErrors...)
	e.mutex.RUnlock()
	for _, handler := range handlers {
		handler(event)
	}
}
