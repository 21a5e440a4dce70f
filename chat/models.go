package chat

import (
	"context"

	"github.com/adityaraj-09/insien-editor/backend"
)

// DefaultModels is the offline fallback list, used when the models endpoint
// cannot be reached.
var DefaultModels = []backend.ModelInfo{
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Vendor: "google", IsDefault: true},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Vendor: "google"},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Vendor: "google"},
}

// DefaultModelID is the fallback default model.
const DefaultModelID = "gemini-2.5-pro"

// ModelService resolves selectable chat models, falling back to the built-in
// list when the server is unreachable.
type ModelService struct {
	client *backend.Client
}

// NewModelService creates a model service over the backend client.
func NewModelService(client *backend.Client) *ModelService {
	return &ModelService{client: client}
}

// Models lists selectable models.
func (m *ModelService) Models(ctx context.Context) []backend.ModelInfo {
	response, err := m.client.GetModels(ctx)
	if err != nil || len(response.Models) == 0 {
		return DefaultModels
	}
	return response.Models
}

// DefaultModel resolves the model id to use when a request names none.
func (m *ModelService) DefaultModel(ctx context.Context) string {
	response, err := m.client.GetModels(ctx)
	if err != nil {
		return DefaultModelID
	}
	if response.Default != "" {
		return response.Default
	}
	for _, model := range response.Models {
		if model.IsDefault {
			return model.ID
		}
	}
	return DefaultModelID
}
