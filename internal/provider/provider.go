// Package provider abstracts streaming LLM backends behind the Eino
// chat-model interface.
package provider

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

// Provider is one configured LLM backend.
type Provider interface {
	// ID returns the provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Models returns the models this provider offers.
	Models() []types.Model

	// ChatModel returns the underlying Eino chat model.
	ChatModel() model.ToolCallingChatModel

	// CreateCompletion starts a streaming completion.
	CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error)
}

// CompletionRequest describes one streaming completion.
type CompletionRequest struct {
	Model     string             `json:"model"`
	Messages  []*schema.Message  `json:"messages"`
	Tools     []*schema.ToolInfo `json:"tools,omitempty"`
	MaxTokens int                `json:"maxTokens,omitempty"`
}

// CompletionStream wraps an Eino message stream.
type CompletionStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// NewCompletionStream wraps reader.
func NewCompletionStream(reader *schema.StreamReader[*schema.Message]) *CompletionStream {
	return &CompletionStream{reader: reader}
}

// Recv returns the next chunk, or io.EOF at the end of the stream.
func (s *CompletionStream) Recv() (*schema.Message, error) {
	return s.reader.Recv()
}

// Close releases the stream.
func (s *CompletionStream) Close() {
	s.reader.Close()
}

// ConvertTool builds an Eino tool description from a name,
// description and JSON Schema parameter document.
func ConvertTool(name, description string, parameters json.RawMessage) *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        name,
		Desc:        description,
		ParamsOneOf: schema.NewParamsOneOfByParams(parseJSONSchemaParams(parameters)),
	}
}

// parseJSONSchemaParams converts a JSON Schema object to Eino
// parameter descriptions. Unknown property types fall back to string.
func parseJSONSchemaParams(schemaJSON json.RawMessage) map[string]*schema.ParameterInfo {
	var doc struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil
	}

	required := make(map[string]bool, len(doc.Required))
	for _, r := range doc.Required {
		required[r] = true
	}

	params := make(map[string]*schema.ParameterInfo, len(doc.Properties))
	for name, prop := range doc.Properties {
		pt := schema.String
		switch prop.Type {
		case "integer":
			pt = schema.Integer
		case "number":
			pt = schema.Number
		case "boolean":
			pt = schema.Boolean
		case "array":
			pt = schema.Array
		case "object":
			pt = schema.Object
		}
		params[name] = &schema.ParameterInfo{
			Type:     pt,
			Desc:     prop.Description,
			Required: required[name],
		}
	}
	return params
}
