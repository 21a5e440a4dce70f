// Package chat is the availability-gated request path on top of ingestion
// state. Chat only works against a fully ingested project; the gateway tracks
// that and refuses locally when the backend could not answer usefully.
package chat

import (
	"context"
	"sync"

	"github.com/adityaraj-09/insien-editor/backend"
	"github.com/adityaraj-09/insien-editor/ingestion"
)

// SendResult is the structured outcome of a chat send. Failures are values,
// not errors: the UI renders them either way.
type SendResult struct {
	Success  bool
	Error    string
	Response *backend.ChatResponse
}

// Gateway mirrors the orchestrator's active project and gates chat on its
// ingestion status.
type Gateway struct {
	client *backend.Client
	models *ModelService

	mutex                sync.RWMutex
	available            bool
	currentProjectID     string
	availabilityHandlers []func(bool)
}

// ProjectEvents is the slice of the orchestrator surface the gateway
// subscribes to.
type ProjectEvents interface {
	OnProjectChanged(func(*backend.LocalProjectInfo))
	OnIngestionComplete(func(ingestion.CompleteEvent))
}

// NewGateway wires a gateway to the orchestrator's events.
func NewGateway(client *backend.Client, orchestrator ProjectEvents) *Gateway {
	g := &Gateway{
		client: client,
		models: NewModelService(client),
	}

	orchestrator.OnProjectChanged(func(project *backend.LocalProjectInfo) {
		if project == nil {
			g.setState("", false)
			return
		}
		g.setState(project.ProjectID, project.IngestionStatus == backend.StatusCompleted)
	})
	orchestrator.OnIngestionComplete(func(event ingestion.CompleteEvent) {
		g.mutex.RLock()
		current := g.currentProjectID
		g.mutex.RUnlock()
		if event.ProjectID == current {
			g.setState(current, true)
		}
	})

	return g
}

// IsAvailable reports whether chat can currently reach a completed project.
func (g *Gateway) IsAvailable() bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.available
}

// CurrentProjectID returns the mirrored active project id.
func (g *Gateway) CurrentProjectID() string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.currentProjectID
}

// OnAvailabilityChanged subscribes to availability edges. Handlers fire only
// when the flag actually flips.
func (g *Gateway) OnAvailabilityChanged(handler func(bool)) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.availabilityHandlers = append(g.availabilityHandlers, handler)
}

// Models exposes the model service.
func (g *Gateway) Models() *ModelService {
	return g.models
}

// SendMessage posts one message and waits for the complete reply. When chat is
// unavailable the backend is never contacted.
func (g *Gateway) SendMessage(ctx context.Context, req *backend.ChatRequest) *SendResult {
	g.mutex.RLock()
	available := g.available
	projectID := g.currentProjectID
	g.mutex.RUnlock()

	if !available {
		return &SendResult{Success: false, Error: "chat is unavailable until project ingestion completes"}
	}

	if req.ProjectID == "" {
		req.ProjectID = projectID
	}
	if req.Model == "" {
		req.Model = g.models.DefaultModel(ctx)
	}

	response, err := g.client.SendChat(ctx, req)
	if err != nil {
		return &SendResult{Success: false, Error: err.Error()}
	}
	return &SendResult{Success: true, Response: response}
}

// GetSessions lists the project's chat sessions; failures collapse to empty.
func (g *Gateway) GetSessions(ctx context.Context, projectID string) []backend.ChatSession {
	sessions, err := g.client.GetSessions(ctx, projectID)
	if err != nil {
		return []backend.ChatSession{}
	}
	return sessions
}

// GetSessionHistory lists one session's messages; failures collapse to empty.
func (g *Gateway) GetSessionHistory(ctx context.Context, sessionID string) []backend.ChatMessage {
	messages, err := g.client.GetSessionHistory(ctx, sessionID)
	if err != nil {
		return []backend.ChatMessage{}
	}
	return messages
}

// DeleteSession removes a session; it reports success rather than erroring.
func (g *Gateway) DeleteSession(ctx context.Context, sessionID string) bool {
	return g.client.DeleteSession(ctx, sessionID) == nil
}

func (g *Gateway) setState(projectID string, available bool) {
	g.mutex.Lock()
	g.currentProjectID = projectID
	changed := g.available != available
	g.available = available
	handlers := make([]func(bool), len(g.availabilityHandlers))
	copy(handlers, g.availabilityHandlers)
	g.mutex.Unlock()

	if !changed {
		return
	}
	for _, handler := range handlers {
		handler(available)
	}
}
