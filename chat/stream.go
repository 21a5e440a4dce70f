package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/adityaraj-09/insien-editor/backend"
)

// StreamEventType tags one server-sent chat event.
type StreamEventType string

const (
	StreamStart    StreamEventType = "start"
	StreamResponse StreamEventType = "response"
	StreamComplete StreamEventType = "complete"
	StreamError    StreamEventType = "error"
)

// StreamEvent is one decoded SSE payload from the send-stream endpoint.
type StreamEvent struct {
	Type        StreamEventType `json:"type"`
	SessionID   string          `json:"sessionId,omitempty"`
	Content     string          `json:"content,omitempty"`
	Edits       []backend.Edit  `json:"edits,omitempty"`
	ContextUsed []string        `json:"contextUsed,omitempty"`
	Error       string          `json:"error,omitempty"`
}

const ssePrefix = "data: "

// SendMessageStream posts one message and streams the reply as decoded events
// on the returned channel. The channel closes when the stream ends; transport
// or parse failures surface as a single terminal error event.
func (g *Gateway) SendMessageStream(ctx context.Context, req *backend.ChatRequest) <-chan StreamEvent {
	eventChan := make(chan StreamEvent)

	go func() {
		defer close(eventChan)

		g.mutex.RLock()
		available := g.available
		projectID := g.currentProjectID
		g.mutex.RUnlock()

		if !available {
			eventChan <- StreamEvent{Type: StreamError, Error: "chat is unavailable until project ingestion completes"}
			return
		}

		if req.ProjectID == "" {
			req.ProjectID = projectID
		}
		if req.Model == "" {
			req.Model = g.models.DefaultModel(ctx)
		}

		resp, err := g.client.OpenChatStream(ctx, req)
		if err != nil {
			eventChan <- StreamEvent{Type: StreamError, Error: err.Error()}
			return
		}
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')

			// A partial trailing line without newline only appears at EOF;
			// bufio keeps everything shorter buffered across chunks.
			if trimmed := strings.TrimSuffix(line, "\n"); strings.HasPrefix(trimmed, ssePrefix) {
				var event StreamEvent
				if parseErr := json.Unmarshal([]byte(strings.TrimPrefix(trimmed, ssePrefix)), &event); parseErr != nil {
					eventChan <- StreamEvent{Type: StreamError, Error: "malformed stream event: " + parseErr.Error()}
					return
				}
				select {
				case eventChan <- event:
				case <-ctx.Done():
					return
				}
				if event.Type == StreamComplete || event.Type == StreamError {
					return
				}
			}

			if err != nil {
				if err != io.EOF {
					eventChan <- StreamEvent{Type: StreamError, Error: err.Error()}
				}
				return
			}
		}
	}()

	return eventChan
}
