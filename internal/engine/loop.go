package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"

	"github.com/chatcore-ai/chatcore/internal/logging"
	"github.com/chatcore-ai/chatcore/internal/provider"
)

const (
	// DefaultMaxSteps bounds the reasoning loop per invocation.
	DefaultMaxSteps = 25
	// ToolPreviewLimit is the byte budget for tool result previews.
	ToolPreviewLimit = 512

	retryInitialInterval = time.Second
	retryMaxInterval     = 30 * time.Second
	retryMaxElapsedTime  = 2 * time.Minute
	maxRetries           = 3
)

// LoopConfig tunes a LoopEngine.
type LoopConfig struct {
	// MaxSteps bounds loop iterations. Zero means DefaultMaxSteps.
	MaxSteps int
	// MaxTokens is the per-completion output limit.
	MaxTokens int
	// SystemPrompt is prepended to every completion request.
	SystemPrompt string
}

// LoopEngine is the production reasoning engine: a tool-calling loop
// over a streaming LLM provider. It keeps the full conversation
// history between invocations, which is exactly why a session's
// invocations must be serialized by the session layer. LoopEngine
// itself is not safe for concurrent use.
type LoopEngine struct {
	prov    provider.Provider
	modelID string
	tools   *ToolRegistry
	cfg     LoopConfig

	history []*schema.Message
}

// NewLoopEngine creates an engine bound to one provider and model.
func NewLoopEngine(prov provider.Provider, modelID string, tools *ToolRegistry, cfg LoopConfig) *LoopEngine {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if tools == nil {
		tools = NewToolRegistry()
	}
	return &LoopEngine{prov: prov, modelID: modelID, tools: tools, cfg: cfg}
}

// Invoke starts one reasoning run and returns its event stream. The
// run executes on its own goroutine and pushes events through the
// stream as they happen.
func (e *LoopEngine) Invoke(ctx context.Context, message string) (*Stream, error) {
	if message == "" {
		return nil, fmt.Errorf("empty message")
	}
	stream, w := Pipe()
	go e.run(ctx, w, message)
	return stream, nil
}

func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsedTime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

// run drives the loop until the model stops calling tools, the step
// budget runs out, or the consumer walks away. Every exit path
// finishes the stream.
func (e *LoopEngine) run(ctx context.Context, w *StreamWriter, message string) {
	defer w.Finish()

	e.history = append(e.history, &schema.Message{Role: schema.User, Content: message})

	retry := newRetryBackoff(ctx)

	for step := 1; ; step++ {
		if ctx.Err() != nil {
			w.Send(Failure{Message: "invocation cancelled"})
			return
		}
		if step > e.cfg.MaxSteps {
			w.Send(Failure{Message: "maximum reasoning steps exceeded"})
			return
		}
		if !w.Send(StepBoundary{Name: fmt.Sprintf("step-%d", step)}) {
			return
		}

		cs, err := e.prov.CreateCompletion(ctx, e.buildRequest())
		if err != nil {
			if next := retry.NextBackOff(); next != backoff.Stop {
				logging.Warn().Err(err).Dur("backoff", next).Msg("completion failed, retrying")
				time.Sleep(next)
				step--
				continue
			}
			w.Send(Failure{Message: err.Error()})
			return
		}

		turn, err := e.readCompletion(w, cs)
		cs.Close()
		if err != nil {
			if next := retry.NextBackOff(); next != backoff.Stop {
				logging.Warn().Err(err).Dur("backoff", next).Msg("stream failed, retrying")
				time.Sleep(next)
				step--
				continue
			}
			w.Send(Failure{Message: err.Error()})
			return
		}
		if turn == nil {
			// Consumer closed the stream mid-read.
			return
		}
		retry.Reset()

		e.history = append(e.history, turn.assistant())

		if len(turn.toolCalls) == 0 {
			w.Send(Done{})
			return
		}

		for _, tc := range turn.toolCalls {
			if !e.runTool(ctx, w, tc) {
				return
			}
		}
	}
}

// turnResult accumulates one completion's output.
type turnResult struct {
	content   string
	toolCalls []schema.ToolCall
}

func (t *turnResult) assistant() *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: t.content, ToolCalls: t.toolCalls}
}

// readCompletion consumes one provider stream, forwarding text deltas
// as they arrive. A nil result with nil error means the consumer has
// abandoned the stream.
func (e *LoopEngine) readCompletion(w *StreamWriter, cs *provider.CompletionStream) (*turnResult, error) {
	turn := &turnResult{}
	calls := make(map[string]*schema.ToolCall)
	var order []string

	for {
		msg, err := cs.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if msg.Content != "" {
			var delta string
			// Some providers stream cumulative content rather than
			// deltas; forward only the unseen suffix in that case.
			if turn.content != "" && len(msg.Content) > len(turn.content) && strings.HasPrefix(msg.Content, turn.content) {
				delta = msg.Content[len(turn.content):]
				turn.content = msg.Content
			} else {
				delta = msg.Content
				turn.content += delta
			}
			if !w.Send(TokenDelta{Text: delta}) {
				return nil, nil
			}
		}

		for _, tc := range msg.ToolCalls {
			existing, ok := calls[tc.ID]
			if !ok {
				copied := tc
				calls[tc.ID] = &copied
				order = append(order, tc.ID)
				continue
			}
			if tc.Function.Name != "" {
				existing.Function.Name = tc.Function.Name
			}
			existing.Function.Arguments += tc.Function.Arguments
		}
	}

	for _, id := range order {
		turn.toolCalls = append(turn.toolCalls, *calls[id])
	}
	return turn, nil
}

// runTool executes one requested tool call and records its result in
// the history. Tool failures become tool results rather than ending
// the invocation; the model decides what to do with them. Returns
// false when the consumer has closed the stream.
func (e *LoopEngine) runTool(ctx context.Context, w *StreamWriter, tc schema.ToolCall) bool {
	name := tc.Function.Name
	if !w.Send(ToolStart{Name: name}) {
		return false
	}

	var result string
	t, err := e.tools.Get(name)
	if err == nil {
		result, err = t.Execute(ctx, json.RawMessage(tc.Function.Arguments))
	}
	if err != nil {
		result = "Error: " + err.Error()
		logging.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
	}

	e.history = append(e.history, &schema.Message{
		Role:       schema.Tool,
		Content:    result,
		ToolCallID: tc.ID,
	})

	return w.Send(ToolEnd{Name: name, Preview: truncatePreview(result, ToolPreviewLimit)})
}

func (e *LoopEngine) buildRequest() *provider.CompletionRequest {
	msgs := make([]*schema.Message, 0, len(e.history)+1)
	if e.cfg.SystemPrompt != "" {
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: e.cfg.SystemPrompt})
	}
	msgs = append(msgs, e.history...)

	var tools []*schema.ToolInfo
	for _, t := range e.tools.List() {
		tools = append(tools, provider.ConvertTool(t.Name(), t.Description(), t.Parameters()))
	}

	return &provider.CompletionRequest{
		Model:     e.modelID,
		Messages:  msgs,
		Tools:     tools,
		MaxTokens: e.cfg.MaxTokens,
	}
}

func truncatePreview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
