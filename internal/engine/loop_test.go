package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcore-ai/chatcore/internal/provider"
	"github.com/chatcore-ai/chatcore/pkg/types"
)

// fakeProvider replays one scripted chunk sequence per completion call
// and records every request it sees.
type fakeProvider struct {
	turns [][]*schema.Message
	reqs  []*provider.CompletionRequest
}

func (p *fakeProvider) ID() string                            { return "fake" }
func (p *fakeProvider) Name() string                          { return "Fake" }
func (p *fakeProvider) Models() []types.Model                 { return nil }
func (p *fakeProvider) ChatModel() model.ToolCallingChatModel { return nil }

func (p *fakeProvider) CreateCompletion(_ context.Context, req *provider.CompletionRequest) (*provider.CompletionStream, error) {
	call := len(p.reqs)
	p.reqs = append(p.reqs, req)
	if call >= len(p.turns) {
		return nil, fmt.Errorf("unexpected completion call %d", call+1)
	}
	chunks := p.turns[call]
	sr, sw := schema.Pipe[*schema.Message](len(chunks) + 1)
	for _, m := range chunks {
		sw.Send(m, nil)
	}
	sw.Close()
	return provider.NewCompletionStream(sr), nil
}

func textChunk(text string) *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: text}
}

func toolChunk(id, name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: id, Function: schema.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func drain(t *testing.T, s *Stream) []Event {
	t.Helper()
	var out []Event
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestLoopEngineStreamsTextCompletion(t *testing.T) {
	p := &fakeProvider{turns: [][]*schema.Message{
		{textChunk("Hel"), textChunk("lo")},
	}}
	e := NewLoopEngine(p, "test-model", nil, LoopConfig{MaxTokens: 1024})

	s, err := e.Invoke(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, []Event{
		StepBoundary{Name: "step-1"},
		TokenDelta{Text: "Hel"},
		TokenDelta{Text: "lo"},
		Done{},
	}, drain(t, s))

	require.Len(t, p.reqs, 1)
	req := p.reqs[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 1024, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, schema.User, req.Messages[0].Role)
	assert.Equal(t, "hi", req.Messages[0].Content)
}

func TestLoopEngineCumulativeContentStream(t *testing.T) {
	p := &fakeProvider{turns: [][]*schema.Message{
		{textChunk("Hel"), textChunk("Hello there")},
	}}
	e := NewLoopEngine(p, "test-model", nil, LoopConfig{})

	s, err := e.Invoke(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, []Event{
		StepBoundary{Name: "step-1"},
		TokenDelta{Text: "Hel"},
		TokenDelta{Text: "lo there"},
		Done{},
	}, drain(t, s))
}

func TestLoopEngineToolCallLoop(t *testing.T) {
	tools := NewToolRegistry()
	clock := &fakeTool{name: "clock", result: "12:00"}
	tools.Register(clock)

	p := &fakeProvider{turns: [][]*schema.Message{
		{toolChunk("call-1", "clock", `{"zone":"UTC"}`)},
		{textChunk("It is noon.")},
	}}
	e := NewLoopEngine(p, "test-model", tools, LoopConfig{})

	s, err := e.Invoke(context.Background(), "what time is it?")
	require.NoError(t, err)

	assert.Equal(t, []Event{
		StepBoundary{Name: "step-1"},
		ToolStart{Name: "clock"},
		ToolEnd{Name: "clock", Preview: "12:00"},
		StepBoundary{Name: "step-2"},
		TokenDelta{Text: "It is noon."},
		Done{},
	}, drain(t, s))

	assert.Equal(t, []string{`{"zone":"UTC"}`}, clock.gotArgs)

	// The first request advertises the registered tool.
	require.Len(t, p.reqs, 2)
	require.Len(t, p.reqs[0].Tools, 1)
	assert.Equal(t, "clock", p.reqs[0].Tools[0].Name)

	// The second request carries the full exchange so far.
	msgs := p.reqs[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "call-1", msgs[1].ToolCalls[0].ID)
	assert.Equal(t, schema.Tool, msgs[2].Role)
	assert.Equal(t, "call-1", msgs[2].ToolCallID)
	assert.Equal(t, "12:00", msgs[2].Content)
}

func TestLoopEngineJoinsChunkedToolArguments(t *testing.T) {
	tools := NewToolRegistry()
	clock := &fakeTool{name: "clock", result: "12:00"}
	tools.Register(clock)

	p := &fakeProvider{turns: [][]*schema.Message{
		{
			toolChunk("call-1", "clock", `{"zone":`),
			toolChunk("call-1", "", `"UTC"}`),
		},
		{textChunk("Noon.")},
	}}
	e := NewLoopEngine(p, "test-model", tools, LoopConfig{})

	s, err := e.Invoke(context.Background(), "time?")
	require.NoError(t, err)
	drain(t, s)

	assert.Equal(t, []string{`{"zone":"UTC"}`}, clock.gotArgs)
}

func TestLoopEngineToolErrorBecomesResult(t *testing.T) {
	tools := NewToolRegistry()
	tools.Register(&fakeTool{name: "clock", err: errors.New("boom")})

	p := &fakeProvider{turns: [][]*schema.Message{
		{toolChunk("call-1", "clock", `{}`)},
		{textChunk("Sorry, the clock is broken.")},
	}}
	e := NewLoopEngine(p, "test-model", tools, LoopConfig{})

	s, err := e.Invoke(context.Background(), "time?")
	require.NoError(t, err)
	events := drain(t, s)

	assert.Contains(t, events, ToolEnd{Name: "clock", Preview: "Error: boom"})
	assert.Equal(t, Done{}, events[len(events)-1])

	msgs := p.reqs[1].Messages
	assert.Equal(t, "Error: boom", msgs[2].Content)
}

func TestLoopEngineUnknownToolBecomesResult(t *testing.T) {
	p := &fakeProvider{turns: [][]*schema.Message{
		{toolChunk("call-1", "missing", `{}`)},
		{textChunk("Never mind.")},
	}}
	e := NewLoopEngine(p, "test-model", nil, LoopConfig{})

	s, err := e.Invoke(context.Background(), "go")
	require.NoError(t, err)
	events := drain(t, s)

	assert.Contains(t, events, ToolEnd{Name: "missing", Preview: "Error: tool not found: missing"})
	assert.Equal(t, Done{}, events[len(events)-1])
}

func TestLoopEngineTruncatesToolPreview(t *testing.T) {
	long := strings.Repeat("x", ToolPreviewLimit+100)
	tools := NewToolRegistry()
	tools.Register(&fakeTool{name: "dump", result: long})

	p := &fakeProvider{turns: [][]*schema.Message{
		{toolChunk("call-1", "dump", `{}`)},
		{textChunk("Done.")},
	}}
	e := NewLoopEngine(p, "test-model", tools, LoopConfig{})

	s, err := e.Invoke(context.Background(), "dump it")
	require.NoError(t, err)
	events := drain(t, s)

	assert.Contains(t, events, ToolEnd{Name: "dump", Preview: long[:ToolPreviewLimit] + "..."})

	// History keeps the untruncated result.
	assert.Equal(t, long, p.reqs[1].Messages[2].Content)
}

func TestLoopEngineMaxStepsExceeded(t *testing.T) {
	tools := NewToolRegistry()
	tools.Register(&fakeTool{name: "clock", result: "12:00"})

	p := &fakeProvider{turns: [][]*schema.Message{
		{toolChunk("call-1", "clock", `{}`)},
	}}
	e := NewLoopEngine(p, "test-model", tools, LoopConfig{MaxSteps: 1})

	s, err := e.Invoke(context.Background(), "time?")
	require.NoError(t, err)

	assert.Equal(t, []Event{
		StepBoundary{Name: "step-1"},
		ToolStart{Name: "clock"},
		ToolEnd{Name: "clock", Preview: "12:00"},
		Failure{Message: "maximum reasoning steps exceeded"},
	}, drain(t, s))

	// The budget stopped the loop before a second completion.
	assert.Len(t, p.reqs, 1)
}

func TestLoopEngineKeepsHistoryAcrossInvocations(t *testing.T) {
	p := &fakeProvider{turns: [][]*schema.Message{
		{textChunk("First answer.")},
		{textChunk("Second answer.")},
	}}
	e := NewLoopEngine(p, "test-model", nil, LoopConfig{SystemPrompt: "be brief"})

	s, err := e.Invoke(context.Background(), "first")
	require.NoError(t, err)
	drain(t, s)

	s, err = e.Invoke(context.Background(), "second")
	require.NoError(t, err)
	drain(t, s)

	require.Len(t, p.reqs, 2)

	msgs := p.reqs[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "be brief", msgs[0].Content)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, "First answer.", msgs[2].Content)
	assert.Equal(t, "second", msgs[3].Content)
}

func TestLoopEngineRejectsEmptyMessage(t *testing.T) {
	e := NewLoopEngine(&fakeProvider{}, "test-model", nil, LoopConfig{})
	_, err := e.Invoke(context.Background(), "")
	assert.Error(t, err)
}

func TestLoopEngineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewLoopEngine(&fakeProvider{}, "test-model", nil, LoopConfig{})
	s, err := e.Invoke(ctx, "hi")
	require.NoError(t, err)

	assert.Equal(t, []Event{Failure{Message: "invocation cancelled"}}, drain(t, s))
}
