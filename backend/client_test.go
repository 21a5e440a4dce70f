package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaraj-09/insien-editor/merkle"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:3000", "token-123")

	assert.Equal(t, "http://localhost:3000", client.BaseURL)
	assert.Equal(t, "token-123", client.AuthToken)
	require.NotNil(t, client.HTTPClient)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(CheckProjectResponse{Exists: false})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	_, err := client.CheckProject(context.Background(), "/home/u/proj", "proj")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestClient_CheckProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/local-projects/check", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/home/u/proj", body["folderPath"])
		assert.Equal(t, "proj", body["folderName"])

		json.NewEncoder(w).Encode(CheckProjectResponse{
			Exists: true,
			Project: &LocalProjectInfo{
				ProjectID:       "p-1",
				LocalHash:       "abc",
				IngestionStatus: StatusCompleted,
				TotalFiles:      12,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	resp, err := client.CheckProject(context.Background(), "/home/u/proj", "proj")
	require.NoError(t, err)
	assert.True(t, resp.Exists)
	require.NotNil(t, resp.Project)
	assert.Equal(t, "p-1", resp.Project.ProjectID)
	assert.Equal(t, StatusCompleted, resp.Project.IngestionStatus)
}

func TestClient_CreateProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/local-projects/create", r.URL.Path)
		json.NewEncoder(w).Encode(CreateProjectResponse{ProjectID: "p-2", LocalHash: "def"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	resp, err := client.CreateProject(context.Background(), "/home/u/proj", "proj")
	require.NoError(t, err)
	assert.Equal(t, "p-2", resp.ProjectID)
	assert.Equal(t, "def", resp.LocalHash)
}

func TestClient_GetProjectStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/local-projects/p-1/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"project": LocalProjectInfo{ProjectID: "p-1", IngestionStatus: StatusProcessing, ProcessedFiles: 4},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	project, err := client.GetProjectStatus(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, project.IngestionStatus)
	assert.Equal(t, 4, project.ProcessedFiles)
}

func TestClient_GetProjectStatus_MissingProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	_, err := client.GetProjectStatus(context.Background(), "p-1")
	assert.Error(t, err)
}

func TestClient_InitIngestAndUploadBatch(t *testing.T) {
	tree := merkle.NewBuilder().BuildTree([]merkle.FileInput{{Path: "a.txt", Content: "hi"}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/local-ingest/p-1/init":
			var body struct {
				TotalFiles int          `json:"totalFiles"`
				MerkleTree *merkle.Node `json:"merkleTree"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 1, body.TotalFiles)
			require.NotNil(t, body.MerkleTree)
			assert.Equal(t, tree.Hash, body.MerkleTree.Hash)
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})

		case "/api/local-ingest/p-1/files":
			var body struct {
				Files        []BatchFile `json:"files"`
				BatchIndex   int         `json:"batchIndex"`
				TotalBatches int         `json:"totalBatches"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.Files, 1)
			assert.Equal(t, 0, body.BatchIndex)
			assert.Equal(t, 1, body.TotalBatches)
			json.NewEncoder(w).Encode(BatchResponse{TotalProcessed: 1, TotalChunks: 3, IsComplete: true})

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	ctx := context.Background()

	require.NoError(t, client.InitIngest(ctx, "p-1", 1, tree))

	batch, err := client.UploadBatch(ctx, "p-1", []BatchFile{{Path: "a.txt", Content: "hi", Size: 2}}, 0, 1)
	require.NoError(t, err)
	assert.True(t, batch.IsComplete)
	assert.Equal(t, 3, batch.TotalChunks)
}

func TestClient_GetIngestionProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/local-ingest/p-1/progress", r.URL.Path)
		json.NewEncoder(w).Encode(ProgressResponse{
			Status:   StatusProcessing,
			Progress: IngestionProgress{Total: 10, Processed: 5, Chunks: 40, Percent: 50},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	progress, err := client.GetIngestionProgress(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, progress.Status)
	assert.Equal(t, 5, progress.Progress.Processed)
}

func TestClient_RetryIngestion_AnySuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/local-ingest/p-1/retry", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	assert.NoError(t, client.RetryIngestion(context.Background(), "p-1"))
}

func TestClient_MerkleTreeRoundTrip(t *testing.T) {
	tree := merkle.NewBuilder().BuildTree([]merkle.FileInput{{Path: "a.txt", Content: "hi"}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/local-ingest/p-1/merkle", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]*merkle.Node{"merkleTree": tree})
		case http.MethodPut:
			var body struct {
				MerkleTree *merkle.Node `json:"merkleTree"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, tree.Hash, body.MerkleTree.Hash)
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	ctx := context.Background()

	got, err := client.GetMerkleTree(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, tree.Hash, got.Hash)

	assert.NoError(t, client.UpdateMerkleTree(ctx, "p-1", tree))
}

func TestClient_MerkleSyncPhases(t *testing.T) {
	tree := merkle.NewBuilder().BuildTree([]merkle.FileInput{{Path: "a.txt", Content: "hi"}})

	phase := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p-1/merkle-sync", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if phase == 0 {
			_, hasFiles := body["files"]
			assert.False(t, hasFiles, "phase 1 must not carry file contents")
			json.NewEncoder(w).Encode(MerkleSyncResponse{
				Summary:    merkle.Summary{Added: 1, Total: 1},
				NeedsFiles: []string{"a.txt"},
			})
		} else {
			var files map[string]FileContent
			require.NoError(t, json.Unmarshal(body["files"], &files))
			assert.Equal(t, "hi", files["a.txt"].Content)
			json.NewEncoder(w).Encode(MerkleSyncResult{FilesProcessed: 1})
		}
		phase++
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	ctx := context.Background()

	p1, err := client.MerkleSyncTree(ctx, "p-1", tree)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, p1.NeedsFiles)

	p2, err := client.MerkleSyncFiles(ctx, "p-1", tree, map[string]FileContent{"a.txt": {Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 1, p2.FilesProcessed)
}

func TestClient_GetModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/custom-chat/models", r.URL.Path)
		json.NewEncoder(w).Encode(ModelsResponse{
			Models:  []ModelInfo{{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Vendor: "google", IsDefault: true}},
			Default: "gemini-2.5-pro",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	models, err := client.GetModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", models.Default)
	require.Len(t, models.Models, 1)
}

func TestClient_SendChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/custom-chat/send", r.URL.Path)

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p-1", req.ProjectID)
		assert.Equal(t, "explain this", req.Message)

		json.NewEncoder(w).Encode(ChatResponse{
			SessionID: "s-1",
			Reply:     "sure",
			Edits:     []Edit{{FilePath: "a.go", NewContent: "x", Type: EditModify}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	resp, err := client.SendChat(context.Background(), &ChatRequest{ProjectID: "p-1", Message: "explain this"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.SessionID)
	require.Len(t, resp.Edits, 1)
	assert.Equal(t, EditModify, resp.Edits[0].Type)
}

func TestClient_Sessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/custom-chat/sessions/p-1" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string][]ChatSession{
				"sessions": {{SessionID: "s-1", Title: "first", MessageCount: 2}},
			})
		case r.URL.Path == "/api/custom-chat/history/s-1":
			json.NewEncoder(w).Encode(map[string][]ChatMessage{
				"messages": {{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
			})
		case r.URL.Path == "/api/custom-chat/sessions/s-1" && r.Method == http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	ctx := context.Background()

	sessions, err := client.GetSessions(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "first", sessions[0].Title)

	messages, err := client.GetSessionHistory(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	assert.NoError(t, client.DeleteSession(ctx, "s-1"))
}

func TestClient_ParsesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "bad folder", Details: "path empty"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	_, err := client.CheckProject(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad folder")
	assert.Contains(t, err.Error(), "path empty")
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	_, err := client.GetModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
}
