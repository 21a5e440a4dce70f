// Package backend is the HTTP client for the insien ingestion and chat
// service. One typed method per endpoint; errors come back as errors, never
// panics, and non-2xx responses are decoded into the server's error shape.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adityaraj-09/insien-editor/merkle"
)

// Client communicates with an insien backend.
type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// NewClient creates a client for the given backend base URL. The token is sent
// as a bearer Authorization header on every request.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		BaseURL:   baseURL,
		AuthToken: authToken,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// --- Wire types ---

// Ingestion status values reported by the server.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// LocalProjectInfo is the server's view of one ingested local folder.
type LocalProjectInfo struct {
	ProjectID       string `json:"projectId"`
	LocalHash       string `json:"localHash"`
	FolderName      string `json:"folderName"`
	FolderPath      string `json:"folderPath"`
	IngestionStatus string `json:"ingestionStatus"`
	TotalFiles      int    `json:"totalFiles"`
	ProcessedFiles  int    `json:"processedFiles"`
	TotalChunks     int    `json:"totalChunks"`
	Error           string `json:"error,omitempty"`
}

// CheckProjectResponse answers whether a folder is already known.
type CheckProjectResponse struct {
	Exists  bool              `json:"exists"`
	Project *LocalProjectInfo `json:"project,omitempty"`
}

// CreateProjectResponse is returned on first registration of a folder.
type CreateProjectResponse struct {
	ProjectID string `json:"projectId"`
	LocalHash string `json:"localHash"`
}

// BatchFile is one file of a full-ingestion upload batch.
type BatchFile struct {
	Path         string `json:"path"`
	Content      string `json:"content"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
}

// BatchResponse reports server-side progress after one batch.
type BatchResponse struct {
	TotalProcessed int  `json:"totalProcessed"`
	TotalChunks    int  `json:"totalChunks"`
	IsComplete     bool `json:"isComplete"`
}

// IngestionProgress is the server-reported progress sample.
type IngestionProgress struct {
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Chunks    int     `json:"chunks"`
	Percent   float64 `json:"percent"`
}

// ProgressResponse is one polling sample.
type ProgressResponse struct {
	Status   string            `json:"status"`
	Progress IngestionProgress `json:"progress"`
	Error    string            `json:"error,omitempty"`
}

// FileContent carries one file body in a merkle-sync phase 2 upload.
type FileContent struct {
	Content string `json:"content"`
}

// MerkleSyncResponse is the phase 1 answer: what changed and which file
// contents the server still needs.
type MerkleSyncResponse struct {
	Changes    []merkle.Change `json:"changes"`
	Summary    merkle.Summary  `json:"summary"`
	NeedsFiles []string        `json:"needsFiles"`
}

// MerkleSyncResult is the phase 2 answer.
type MerkleSyncResult struct {
	Changes        []merkle.Change `json:"changes"`
	Summary        merkle.Summary  `json:"summary"`
	FilesProcessed int             `json:"filesProcessed"`
	FilesDeleted   int             `json:"filesDeleted"`
}

// ModelInfo describes one selectable chat model.
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Vendor    string `json:"vendor"`
	IsDefault bool   `json:"isDefault,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
}

// ModelsResponse lists selectable models and the server default.
type ModelsResponse struct {
	Models  []ModelInfo `json:"models"`
	Default string      `json:"default"`
}

// Edit is a server-proposed file change accompanying a chat reply. The client
// relays it opaquely and only interprets it when the user applies it.
type Edit struct {
	FilePath        string `json:"filePath"`
	OriginalContent string `json:"originalContent,omitempty"`
	NewContent      string `json:"newContent"`
	StartLine       int    `json:"startLine,omitempty"`
	EndLine         int    `json:"endLine,omitempty"`
	Type            string `json:"type"`
}

// Edit type values.
const (
	EditCreate = "create"
	EditModify = "modify"
	EditDelete = "delete"
)

// ChatRequest is the request body for both send and send-stream.
type ChatRequest struct {
	ProjectID    string   `json:"projectId"`
	SessionID    string   `json:"sessionId,omitempty"`
	Message      string   `json:"message"`
	Model        string   `json:"model,omitempty"`
	ContextFiles []string `json:"contextFiles,omitempty"`
}

// ChatResponse is the non-streaming chat reply.
type ChatResponse struct {
	SessionID   string       `json:"sessionId"`
	Reply       string       `json:"reply"`
	Edits       []Edit       `json:"edits,omitempty"`
	ContextUsed []string     `json:"contextUsed,omitempty"`
	MerkleTree  *merkle.Node `json:"merkleTree,omitempty"`
}

// ChatSession is the server-side descriptor of one conversation.
type ChatSession struct {
	SessionID    string `json:"sessionId"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// ChatMessage is one message of a session's history.
type ChatMessage struct {
	Role     string          `json:"role"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ErrorResponse is the server's error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// --- Project endpoints ---

// CheckProject asks whether the folder is already registered.
func (c *Client) CheckProject(ctx context.Context, folderPath, folderName string) (*CheckProjectResponse, error) {
	body := map[string]string{"folderPath": folderPath, "folderName": folderName}

	var result CheckProjectResponse
	if err := c.postJSON(ctx, "/api/local-projects/check", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateProject registers the folder and returns the server-assigned id.
func (c *Client) CreateProject(ctx context.Context, folderPath, folderName string) (*CreateProjectResponse, error) {
	body := map[string]string{"folderPath": folderPath, "folderName": folderName}

	var result CreateProjectResponse
	if err := c.postJSON(ctx, "/api/local-projects/create", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProjectStatus fetches the current project record.
func (c *Client) GetProjectStatus(ctx context.Context, projectID string) (*LocalProjectInfo, error) {
	var result struct {
		Project *LocalProjectInfo `json:"project"`
	}
	if err := c.getJSON(ctx, "/api/local-projects/"+projectID+"/status", &result); err != nil {
		return nil, err
	}
	if result.Project == nil {
		return nil, fmt.Errorf("status response missing project")
	}
	return result.Project, nil
}

// --- Ingestion endpoints ---

// InitIngest announces a full ingestion: file count plus the complete tree.
func (c *Client) InitIngest(ctx context.Context, projectID string, totalFiles int, tree *merkle.Node) error {
	body := map[string]interface{}{
		"totalFiles": totalFiles,
		"merkleTree": tree,
	}
	return c.postJSON(ctx, "/api/local-ingest/"+projectID+"/init", body, nil)
}

// UploadBatch posts one batch of file contents.
func (c *Client) UploadBatch(ctx context.Context, projectID string, files []BatchFile, batchIndex, totalBatches int) (*BatchResponse, error) {
	body := map[string]interface{}{
		"files":        files,
		"batchIndex":   batchIndex,
		"totalBatches": totalBatches,
	}

	var result BatchResponse
	if err := c.postJSON(ctx, "/api/local-ingest/"+projectID+"/files", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetIngestionProgress fetches one progress sample.
func (c *Client) GetIngestionProgress(ctx context.Context, projectID string) (*ProgressResponse, error) {
	var result ProgressResponse
	if err := c.getJSON(ctx, "/api/local-ingest/"+projectID+"/progress", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryIngestion asks the server to reset a failed ingestion to pending.
// Any 2xx counts as success.
func (c *Client) RetryIngestion(ctx context.Context, projectID string) error {
	return c.postJSON(ctx, "/api/local-ingest/"+projectID+"/retry", struct{}{}, nil)
}

// GetMerkleTree fetches the server's current tree for the project.
func (c *Client) GetMerkleTree(ctx context.Context, projectID string) (*merkle.Node, error) {
	var result struct {
		MerkleTree *merkle.Node `json:"merkleTree"`
	}
	if err := c.getJSON(ctx, "/api/local-ingest/"+projectID+"/merkle", &result); err != nil {
		return nil, err
	}
	return result.MerkleTree, nil
}

// UpdateMerkleTree replaces the server's stored tree.
func (c *Client) UpdateMerkleTree(ctx context.Context, projectID string, tree *merkle.Node) error {
	body := map[string]interface{}{"merkleTree": tree}
	return c.putJSON(ctx, "/api/local-ingest/"+projectID+"/merkle", body, nil)
}

// MerkleSyncTree runs phase 1: share the tree, learn which files to upload.
func (c *Client) MerkleSyncTree(ctx context.Context, projectID string, tree *merkle.Node) (*MerkleSyncResponse, error) {
	body := map[string]interface{}{"merkleTree": tree}

	var result MerkleSyncResponse
	if err := c.postJSON(ctx, "/api/projects/"+projectID+"/merkle-sync", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MerkleSyncFiles runs phase 2: upload the contents the server asked for.
func (c *Client) MerkleSyncFiles(ctx context.Context, projectID string, tree *merkle.Node, files map[string]FileContent) (*MerkleSyncResult, error) {
	body := map[string]interface{}{
		"merkleTree": tree,
		"files":      files,
	}

	var result MerkleSyncResult
	if err := c.postJSON(ctx, "/api/projects/"+projectID+"/merkle-sync", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Chat endpoints ---

// GetModels lists selectable chat models.
func (c *Client) GetModels(ctx context.Context) (*ModelsResponse, error) {
	var result ModelsResponse
	if err := c.getJSON(ctx, "/api/custom-chat/models", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendChat posts one chat message and waits for the full reply.
func (c *Client) SendChat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var result ChatResponse
	if err := c.postJSON(ctx, "/api/custom-chat/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OpenChatStream posts one chat message and hands back the raw SSE response.
// The caller owns the body and must close it.
func (c *Client) OpenChatStream(ctx context.Context, req *ChatRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/custom-chat/send-stream", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	// Client.Timeout covers the whole body read, which would cut long streams
	// short; the SSE request runs on an untimed client and is bounded by ctx.
	streamClient := &http.Client{Transport: c.HTTPClient.Transport}
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}
	return resp, nil
}

// GetSessions lists chat sessions of a project.
func (c *Client) GetSessions(ctx context.Context, projectID string) ([]ChatSession, error) {
	var result struct {
		Sessions []ChatSession `json:"sessions"`
	}
	if err := c.getJSON(ctx, "/api/custom-chat/sessions/"+projectID, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// GetSessionHistory fetches the messages of one session.
func (c *Client) GetSessionHistory(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	var result struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := c.getJSON(ctx, "/api/custom-chat/history/"+sessionID, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// DeleteSession removes one session server-side.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/api/custom-chat/sessions/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// --- Helpers ---

func (c *Client) authorize(req *http.Request) {
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) putJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var serverErr ErrorResponse
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
		if serverErr.Details != "" {
			return fmt.Errorf("server error (%d): %s: %s", resp.StatusCode, serverErr.Error, serverErr.Details)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, serverErr.Error)
	}
	return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bytes.TrimSpace(body)))
}
