package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicProvider serves Claude models through the Eino claude
// component.
type AnthropicProvider struct {
	chatModel model.ToolCallingChatModel
	models    []types.Model
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewAnthropicProvider creates the provider, falling back to
// ANTHROPIC_API_KEY from the environment.
func NewAnthropicProvider(ctx context.Context, cfg *AnthropicConfig) (*AnthropicProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	mc := &claude.Config{
		APIKey:    apiKey,
		Model:     modelID,
		MaxTokens: maxTokens,
	}
	if cfg.BaseURL != "" {
		mc.BaseURL = &cfg.BaseURL
	}

	chatModel, err := claude.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Claude model: %w", err)
	}

	return &AnthropicProvider{
		chatModel: chatModel,
		models: []types.Model{
			{ID: modelID, Name: "Claude", MaxOutputTokens: maxTokens, SupportsTools: true},
		},
	}, nil
}

// ID returns "anthropic".
func (p *AnthropicProvider) ID() string { return "anthropic" }

// Name returns the human-readable provider name.
func (p *AnthropicProvider) Name() string { return "Anthropic" }

// Models returns the configured model list.
func (p *AnthropicProvider) Models() []types.Model { return p.models }

// ChatModel returns the underlying Eino chat model.
func (p *AnthropicProvider) ChatModel() model.ToolCallingChatModel { return p.chatModel }

// CreateCompletion starts a streaming completion, binding tools when
// the request carries any.
func (p *AnthropicProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
	return createCompletion(ctx, p.chatModel, req)
}
