// Package ingestion drives the incremental sync protocol: it identifies the
// open workspace folder, decides between a full batched upload and a two-phase
// merkle sync, and surfaces progress as events.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/adityaraj-09/insien-editor/backend"
	"github.com/adityaraj-09/insien-editor/merkle"
	"github.com/adityaraj-09/insien-editor/workspace"
	"github.com/adityaraj-09/insien-editor/workspace/contracts"
)

const (
	// uploadBatchSize is the number of files per full-ingestion batch.
	uploadBatchSize = 20
	// defaultPollInterval is the spacing of progress polls while the server
	// reports processing.
	defaultPollInterval = 2 * time.Second
)

// Orchestrator owns the single active project and runs the ingestion state
// machine. It is created once per process; Initialize wires the transport and
// immediately checks the open workspace.
type Orchestrator struct {
	events

	workspace contracts.IWorkspace
	collector *workspace.Collector
	builder   *merkle.Builder

	userID       string
	pollInterval time.Duration

	mutex         sync.Mutex
	client        *backend.Client
	activeProject *backend.LocalProjectInfo
	currentTree   *merkle.Node
}

// NewOrchestrator creates an orchestrator over the host workspace and file
// service. userID feeds the project identity hash.
func NewOrchestrator(ws contracts.IWorkspace, fs contracts.IFileService, userID string) *Orchestrator {
	return &Orchestrator{
		workspace:    ws,
		collector:    workspace.NewCollector(fs),
		builder:      merkle.NewBuilder(),
		userID:       userID,
		pollInterval: defaultPollInterval,
	}
}

// EnableContentCache attaches a content cache to the collector so repeat syncs
// skip re-reading unchanged files.
func (o *Orchestrator) EnableContentCache(cache *workspace.ContentCache) {
	o.collector.Cache = cache
}

// Initialize sets the transport configuration and immediately checks the open
// workspace, kicking off whatever ingestion it needs.
func (o *Orchestrator) Initialize(ctx context.Context, backendURL, authToken string) error {
	o.mutex.Lock()
	o.client = backend.NewClient(backendURL, authToken)
	o.mutex.Unlock()

	return o.CheckAndIngestWorkspace(ctx)
}

// CheckAndIngestWorkspace reads the first workspace root. With no root the
// active project is cleared and a nil project-changed event fires; otherwise
// ingestion of that root begins.
func (o *Orchestrator) CheckAndIngestWorkspace(ctx context.Context) error {
	roots := o.workspace.Roots()
	if len(roots) == 0 {
		o.mutex.Lock()
		o.activeProject = nil
		o.currentTree = nil
		o.mutex.Unlock()
		o.emitProjectChanged(nil)
		return nil
	}
	return o.IngestFolder(ctx, roots[0])
}

// ActiveProject returns the current project, or nil when no workspace is open.
func (o *Orchestrator) ActiveProject() *backend.LocalProjectInfo {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.activeProject == nil {
		return nil
	}
	clone := *o.activeProject
	return &clone
}

// CurrentTree returns the last tree accepted by the server, if any.
func (o *Orchestrator) CurrentTree() *merkle.Node {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.currentTree
}

// LocalHash derives the project identity for a folder URI.
func (o *Orchestrator) LocalHash(uri string) string {
	return ComputeLocalHash(o.userID, uri, folderName(uri))
}

// IngestFolder is the main driver. It asks the server whether the folder is
// known and branches: unknown folders get a full batched upload, completed
// ones a merkle sync, in-flight ones a progress poll, failed ones wait for an
// explicit retry.
func (o *Orchestrator) IngestFolder(ctx context.Context, uri string) error {
	client := o.backendClient()
	if client == nil {
		return fmt.Errorf("orchestrator not initialized")
	}

	name := folderName(uri)
	check, err := client.CheckProject(ctx, uri, name)
	if err != nil {
		o.emitError(ErrorEvent{Err: fmt.Errorf("checking project: %w", err)})
		return err
	}

	if !check.Exists {
		created, err := client.CreateProject(ctx, uri, name)
		if err != nil {
			o.emitError(ErrorEvent{Err: fmt.Errorf("creating project: %w", err)})
			return err
		}
		project := &backend.LocalProjectInfo{
			ProjectID:       created.ProjectID,
			LocalHash:       created.LocalHash,
			FolderName:      name,
			FolderPath:      uri,
			IngestionStatus: backend.StatusPending,
		}
		o.adoptProject(project)
		return o.fullIngestion(ctx, project.ProjectID, uri)
	}

	project := check.Project
	o.adoptProject(project)

	switch project.IngestionStatus {
	case backend.StatusCompleted:
		return o.SyncWithMerkle(ctx, project.ProjectID, uri)
	case backend.StatusProcessing, backend.StatusPending:
		return o.pollProgress(ctx, project.ProjectID)
	case backend.StatusFailed:
		// Idle until the user calls RetryIngestion.
		return nil
	default:
		err := fmt.Errorf("unknown ingestion status %q", project.IngestionStatus)
		o.emitError(ErrorEvent{ProjectID: project.ProjectID, Err: err})
		return err
	}
}

// fullIngestion walks the folder, announces the tree, then uploads every file
// in fixed-size batches, strictly in order.
func (o *Orchestrator) fullIngestion(ctx context.Context, projectID, uri string) error {
	client := o.backendClient()

	files, err := o.collector.Collect(uri)
	if err != nil {
		o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("collecting files: %w", err)})
		return err
	}

	tree := o.buildTree(files)
	if err := client.InitIngest(ctx, projectID, len(files), tree); err != nil {
		o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("initializing ingestion: %w", err)})
		return err
	}

	totalBatches := (len(files) + uploadBatchSize - 1) / uploadBatchSize
	var lastResponse *backend.BatchResponse

	for batchIndex := 0; batchIndex < totalBatches; batchIndex++ {
		start := batchIndex * uploadBatchSize
		end := start + uploadBatchSize
		if end > len(files) {
			end = len(files)
		}

		batch := make([]backend.BatchFile, 0, end-start)
		for _, file := range files[start:end] {
			batch = append(batch, backend.BatchFile{
				Path:         file.Path,
				Content:      file.Content,
				Size:         file.Size,
				LastModified: file.LastModifiedMs,
			})
		}

		response, err := client.UploadBatch(ctx, projectID, batch, batchIndex, totalBatches)
		if err != nil {
			o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("uploading batch %d/%d: %w", batchIndex+1, totalBatches, err)})
			return err
		}
		lastResponse = response

		percent := 0.0
		if len(files) > 0 {
			percent = float64(response.TotalProcessed) / float64(len(files)) * 100
		}
		o.emitProgress(ProgressEvent{
			ProjectID: projectID,
			Progress: backend.IngestionProgress{
				Total:     len(files),
				Processed: response.TotalProcessed,
				Chunks:    response.TotalChunks,
				Percent:   percent,
			},
		})
	}

	if lastResponse != nil && !lastResponse.IsComplete {
		// The server has every batch but has not flagged the terminal one;
		// chunking is still running, so fall back to polling.
		o.mutex.Lock()
		o.currentTree = tree
		o.mutex.Unlock()
		return o.pollProgress(ctx, projectID)
	}

	o.mutex.Lock()
	o.currentTree = tree
	if o.activeProject != nil && o.activeProject.ProjectID == projectID {
		o.activeProject.IngestionStatus = backend.StatusCompleted
		o.activeProject.TotalFiles = len(files)
		if lastResponse != nil {
			o.activeProject.ProcessedFiles = lastResponse.TotalProcessed
			o.activeProject.TotalChunks = lastResponse.TotalChunks
		}
	}
	o.mutex.Unlock()

	complete := CompleteEvent{ProjectID: projectID, TotalFiles: len(files)}
	if lastResponse != nil {
		complete.TotalChunks = lastResponse.TotalChunks
	}
	o.emitComplete(complete)
	return nil
}

// SyncWithMerkle runs the two-phase diff-and-upload. Phase 1 shares only the
// tree; phase 2 uploads exactly the contents the server asked for. The current
// tree advances only once the server accepted everything.
func (o *Orchestrator) SyncWithMerkle(ctx context.Context, projectID, uri string) error {
	client := o.backendClient()
	if client == nil {
		return fmt.Errorf("orchestrator not initialized")
	}

	files, err := o.collector.Collect(uri)
	if err != nil {
		o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("collecting files: %w", err)})
		return err
	}

	contents := make(map[string]string, len(files))
	for _, file := range files {
		contents[file.Path] = file.Content
	}
	tree := o.buildTree(files)

	phase1, err := client.MerkleSyncTree(ctx, projectID, tree)
	if err != nil {
		o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("merkle sync: %w", err)})
		return err
	}

	if len(phase1.NeedsFiles) == 0 {
		// Nothing to upload: a no-op or a deletes-only sync.
		o.acceptTree(projectID, tree, len(files))
		o.emitComplete(CompleteEvent{ProjectID: projectID, TotalFiles: len(files)})
		return nil
	}

	needed := make(map[string]backend.FileContent, len(phase1.NeedsFiles))
	for _, wanted := range phase1.NeedsFiles {
		content, ok := contents[wanted]
		if !ok {
			log.Printf("warning: server requested %s which was not collected", wanted)
			continue
		}
		needed[wanted] = backend.FileContent{Content: content}
	}

	result, err := client.MerkleSyncFiles(ctx, projectID, tree, needed)
	if err != nil {
		o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("uploading sync files: %w", err)})
		return err
	}

	o.acceptTree(projectID, tree, len(files))
	o.emitComplete(CompleteEvent{ProjectID: projectID, TotalFiles: result.FilesProcessed})
	return nil
}

// GetProjectStatus fetches the server's view of a project.
func (o *Orchestrator) GetProjectStatus(ctx context.Context, projectID string) (*backend.LocalProjectInfo, error) {
	client := o.backendClient()
	if client == nil {
		return nil, fmt.Errorf("orchestrator not initialized")
	}
	return client.GetProjectStatus(ctx, projectID)
}

// RetryIngestion asks the server to reset a failed project and re-enters the
// state machine from the top.
func (o *Orchestrator) RetryIngestion(ctx context.Context, projectID string) error {
	client := o.backendClient()
	if client == nil {
		return fmt.Errorf("orchestrator not initialized")
	}
	if err := client.RetryIngestion(ctx, projectID); err != nil {
		o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("retrying ingestion: %w", err)})
		return err
	}
	return o.CheckAndIngestWorkspace(ctx)
}

// GetMerkleTree fetches the server's stored tree.
func (o *Orchestrator) GetMerkleTree(ctx context.Context, projectID string) (*merkle.Node, error) {
	client := o.backendClient()
	if client == nil {
		return nil, fmt.Errorf("orchestrator not initialized")
	}
	return client.GetMerkleTree(ctx, projectID)
}

// UpdateMerkleTree replaces the server's stored tree.
func (o *Orchestrator) UpdateMerkleTree(ctx context.Context, projectID string, tree *merkle.Node) error {
	client := o.backendClient()
	if client == nil {
		return fmt.Errorf("orchestrator not initialized")
	}
	return client.UpdateMerkleTree(ctx, projectID, tree)
}

// pollProgress samples server progress until the status is neither processing
// nor pending.
// Transport failures end polling silently; the next workspace change or an
// explicit retry resumes work.
func (o *Orchestrator) pollProgress(ctx context.Context, projectID string) error {
	client := o.backendClient()
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		progress, err := client.GetIngestionProgress(ctx, projectID)
		if err != nil {
			return nil
		}

		o.emitProgress(ProgressEvent{ProjectID: projectID, Progress: progress.Progress})

		switch progress.Status {
		case backend.StatusProcessing, backend.StatusPending:
			continue
		case backend.StatusCompleted:
			o.setProjectStatus(projectID, backend.StatusCompleted)
			o.emitComplete(CompleteEvent{
				ProjectID:   projectID,
				TotalFiles:  progress.Progress.Total,
				TotalChunks: progress.Progress.Chunks,
			})
			return nil
		default:
			o.setProjectStatus(projectID, backend.StatusFailed)
			o.emitError(ErrorEvent{ProjectID: projectID, Err: fmt.Errorf("ingestion failed: %s", progress.Error)})
			return nil
		}
	}
}

func (o *Orchestrator) adoptProject(project *backend.LocalProjectInfo) {
	o.mutex.Lock()
	o.activeProject = project
	o.mutex.Unlock()
	// Project-changed always precedes any progress for a newly adopted project.
	o.emitProjectChanged(project)
}

func (o *Orchestrator) acceptTree(projectID string, tree *merkle.Node, totalFiles int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.currentTree = tree
	if o.activeProject != nil && o.activeProject.ProjectID == projectID {
		o.activeProject.IngestionStatus = backend.StatusCompleted
		o.activeProject.TotalFiles = totalFiles
	}
}

func (o *Orchestrator) setProjectStatus(projectID, status string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.activeProject != nil && o.activeProject.ProjectID == projectID {
		o.activeProject.IngestionStatus = status
	}
}

func (o *Orchestrator) backendClient() *backend.Client {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.client
}

func (o *Orchestrator) buildTree(files []workspace.CollectedFile) *merkle.Node {
	inputs := make([]merkle.FileInput, len(files))
	for i, file := range files {
		size := file.Size
		modified := file.LastModifiedMs
		inputs[i] = merkle.FileInput{
			Path:    file.Path,
			Content: file.Content,
			Size:    &size,
		}
		if modified != 0 {
			inputs[i].LastModified = &modified
		}
	}
	return o.builder.BuildTree(inputs)
}

func folderName(uri string) string {
	normalized := strings.TrimRight(strings.ReplaceAll(uri, "\\", "/"), "/")
	return path.Base(normalized)
}
