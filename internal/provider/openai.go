package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider serves OpenAI-compatible models through the Eino
// openai component. With a custom BaseURL it also covers local
// OpenAI-compatible runtimes.
type OpenAIProvider struct {
	chatModel model.ToolCallingChatModel
	models    []types.Model
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewOpenAIProvider creates the provider, falling back to
// OPENAI_API_KEY from the environment.
func NewOpenAIProvider(ctx context.Context, cfg *OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = defaultOpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	mc := &openai.ChatModelConfig{
		APIKey:              apiKey,
		Model:               modelID,
		MaxCompletionTokens: &maxTokens,
	}
	if cfg.BaseURL != "" {
		mc.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
	}

	return &OpenAIProvider{
		chatModel: chatModel,
		models: []types.Model{
			{ID: modelID, Name: "OpenAI", MaxOutputTokens: maxTokens, SupportsTools: true},
		},
	}, nil
}

// ID returns "openai".
func (p *OpenAIProvider) ID() string { return "openai" }

// Name returns the human-readable provider name.
func (p *OpenAIProvider) Name() string { return "OpenAI" }

// Models returns the configured model list.
func (p *OpenAIProvider) Models() []types.Model { return p.models }

// ChatModel returns the underlying Eino chat model.
func (p *OpenAIProvider) ChatModel() model.ToolCallingChatModel { return p.chatModel }

// CreateCompletion starts a streaming completion.
func (p *OpenAIProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
	return createCompletion(ctx, p.chatModel, req)
}

// createCompletion is shared by all Eino-backed providers.
func createCompletion(ctx context.Context, chatModel model.ToolCallingChatModel, req *CompletionRequest) (*CompletionStream, error) {
	if len(req.Tools) > 0 {
		var err error
		chatModel, err = chatModel.WithTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	opts := []model.Option{}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	stream, err := chatModel.Stream(ctx, req.Messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}
	return NewCompletionStream(stream), nil
}
