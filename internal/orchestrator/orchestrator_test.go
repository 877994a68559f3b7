package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/papers"
	htesting "github.com/user/thesisherald/internal/testing"
	"github.com/user/thesisherald/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fivePapers() []papers.Paper {
	titles := []string{
		"Unified Vision-Language Pretraining",
		"Audio-Visual Transformers at Scale",
		"Contrastive Captioners Revisited",
		"Multimodal Chain-of-Thought Reasoning",
		"Sparse Mixture of Modality Experts",
	}
	out := make([]papers.Paper, len(titles))
	for i, title := range titles {
		id := fmt.Sprintf("2403.0000%d", i+1)
		out[i] = papers.Paper{
			ID:        id,
			Title:     title,
			URL:       "https://arxiv.org/abs/" + id,
			Published: time.Date(2024, 3, 10-i, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func paperTool(found []papers.Paper, calls *int32) tools.ToolSpec {
	return tools.ToolSpec{
		Name: tools.SearchPapersToolName,
		Params: map[string]tools.ParamSpec{
			"query":       {Type: tools.TypeString, Required: true},
			"max_results": {Type: tools.TypeInteger},
		},
		Handler: func(ctx context.Context, args tools.Arguments) (tools.Output, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}
			return tools.Output{Content: fmt.Sprintf("%d papers", len(found)), Papers: found}, nil
		},
	}
}

func newRegistry(t *testing.T, specs ...tools.ToolSpec) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry(tools.DispatchOptions{Timeout: time.Second, MaxRetries: 1, RetryBackoff: time.Millisecond}, nil)
	for _, spec := range specs {
		require.NoError(t, r.Register(spec))
	}
	return r
}

func testConfig() Config {
	return Config{MaxTurns: 5, ModelTimeout: time.Second, Budget: 5 * time.Second, MaxToolConcurrency: 5}
}

// assertPairing checks that each assistant tool call is answered exactly
// once, in order, before the next assistant message.
func assertPairing(t *testing.T, turns []Turn) {
	t.Helper()
	for i := 0; i < len(turns); i++ {
		msg, ok := turns[i].(AssistantMessage)
		if !ok || len(msg.ToolCalls) == 0 {
			continue
		}
		if i+len(msg.ToolCalls) >= len(turns) {
			// Only the final, undispatched reply may be unanswered
			assert.Equal(t, len(turns)-1, i, "unanswered tool calls before the end")
			continue
		}
		for j, call := range msg.ToolCalls {
			outcome, ok := turns[i+1+j].(ToolOutcome)
			require.True(t, ok, "turn %d should be a ToolOutcome", i+1+j)
			assert.Equal(t, call.ID, outcome.CallID)
		}
	}
}

func TestRun_TrivialQuestionNeedsNoTools(t *testing.T) {
	client := htesting.NewMockLLMClient(htesting.TextResponse("4"))
	o := New(client, newRegistry(t, paperTool(nil, nil)), testConfig(), nil)

	res, err := o.Run(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", res.FinalText)
	assert.Equal(t, 1, res.TurnCount)
	assert.False(t, res.Truncated)
	assert.Equal(t, Done, res.State)
	assert.Empty(t, res.CitedPapers)
	assert.Len(t, res.Conversation, 2)

	req := client.LastRequest()
	require.Len(t, req.Tools, 1)
	assert.Equal(t, tools.SearchPapersToolName, req.Tools[0].Name)
}

func TestRun_CitesOnlyReferencedPapers(t *testing.T) {
	found := fivePapers()
	final := "Three recent works stand out: arXiv:2403.00002v1 scales audio-visual models, " +
		"2403.00004 studies reasoning, and \"Contrastive captioners revisited!\" revisits CoCa."
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("", htesting.Call("call_1", tools.SearchPapersToolName, map[string]interface{}{
			"query": "multimodal learning", "max_results": float64(5),
		})),
		htesting.TextResponse(final),
	)
	o := New(client, newRegistry(t, paperTool(found, nil)), testConfig(), nil)

	res, err := o.Run(context.Background(), "recent multimodal learning papers")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TurnCount)
	assert.Equal(t, final, res.FinalText)

	var ids []string
	for _, p := range res.CitedPapers {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"2403.00002", "2403.00003", "2403.00004"}, ids, "first-seen order")

	second := client.Requests()[1]
	require.Len(t, second.Messages, 3)
	toolMsg := second.Messages[2]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolID)
	assert.Equal(t, tools.SearchPapersToolName, toolMsg.ToolName)
	assertPairing(t, res.Conversation)
}

func TestRun_ToolFailureDoesNotAbort(t *testing.T) {
	slow := tools.ToolSpec{
		Name:   tools.SearchPapersToolName,
		Params: map[string]tools.ParamSpec{"query": {Type: tools.TypeString, Required: true}},
		Handler: func(ctx context.Context, args tools.Arguments) (tools.Output, error) {
			<-ctx.Done()
			return tools.Output{}, ctx.Err()
		},
	}
	registry := tools.NewRegistry(tools.DispatchOptions{Timeout: 20 * time.Millisecond, MaxRetries: 1, RetryBackoff: time.Millisecond}, nil)
	require.NoError(t, registry.Register(slow))

	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("", htesting.Call("c1", tools.SearchPapersToolName, map[string]interface{}{"query": "x"})),
		htesting.TextResponse("Sorry, the paper search timed out."),
	)
	o := New(client, registry, testConfig(), nil)

	res, err := o.Run(context.Background(), "papers on x")
	require.NoError(t, err)
	assert.Equal(t, Done, res.State)
	assert.False(t, res.Truncated)
	assert.Equal(t, "Sorry, the paper search timed out.", res.FinalText)

	outcome := res.Conversation[2].(ToolOutcome)
	assert.True(t, outcome.Result.IsError)
	assert.Equal(t, 2, outcome.Result.Attempts)
	assert.True(t, client.LastRequest().Messages[2].IsError)
}

func TestRun_TurnLimitTruncates(t *testing.T) {
	var toolCalls int32
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("Looking into it", htesting.Call("a", tools.SearchPapersToolName, map[string]interface{}{"query": "q"})),
	)
	cfg := testConfig()
	cfg.MaxTurns = 3
	o := New(client, newRegistry(t, paperTool(fivePapers(), &toolCalls)), cfg, nil)

	res, err := o.Run(context.Background(), "never-ending question")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 3, res.TurnCount)
	assert.Equal(t, 3, client.CallCount())
	assert.Equal(t, "Looking into it", res.FinalText)
	assert.Equal(t, int32(2), atomic.LoadInt32(&toolCalls), "calls of the last allowed reply are not dispatched")
	assertPairing(t, res.Conversation)
}

func TestRun_TurnLimitWithoutTextUsesFallback(t *testing.T) {
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("", htesting.Call("a", tools.SearchPapersToolName, map[string]interface{}{"query": "q"})),
	)
	cfg := testConfig()
	cfg.MaxTurns = 1
	cfg.FallbackText = "fallback"
	o := New(client, newRegistry(t, paperTool(nil, nil)), cfg, nil)

	res, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "fallback", res.FinalText)
	assert.Equal(t, 1, res.TurnCount)
}

func TestRun_ModelErrorsAreFatal(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		assert func(t *testing.T, err error)
	}{
		{
			name: "unavailable passes through",
			err:  errors.NewModelUnavailableError("mock", 401, stderrors.New("bad key")),
			assert: func(t *testing.T, err error) {
				var mu *errors.ModelUnavailableError
				require.True(t, stderrors.As(err, &mu))
				assert.Equal(t, 401, mu.StatusCode)
			},
		},
		{
			name: "protocol passes through",
			err:  errors.NewModelProtocolError("mock", "garbage", nil),
			assert: func(t *testing.T, err error) {
				var pe *errors.ModelProtocolError
				assert.True(t, stderrors.As(err, &pe))
			},
		},
		{
			name: "untyped error becomes unavailable",
			err:  stderrors.New("socket closed"),
			assert: func(t *testing.T, err error) {
				var mu *errors.ModelUnavailableError
				require.True(t, stderrors.As(err, &mu))
				assert.Contains(t, err.Error(), "socket closed")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := htesting.NewMockLLMClient(htesting.TextResponse("unused"))
			client.Errors[0] = tt.err
			o := New(client, newRegistry(t), testConfig(), nil)

			res, err := o.Run(context.Background(), "q")
			assert.Nil(t, res)
			tt.assert(t, err)
		})
	}
}

func TestRun_FatalAfterToolRound(t *testing.T) {
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("", htesting.Call("a", tools.SearchPapersToolName, map[string]interface{}{"query": "q"})),
	)
	client.Errors[1] = errors.NewModelUnavailableError("mock", 429, stderrors.New("quota"))
	o := New(client, newRegistry(t, paperTool(nil, nil)), testConfig(), nil)

	_, err := o.Run(context.Background(), "q")
	var mu *errors.ModelUnavailableError
	require.True(t, stderrors.As(err, &mu))
	assert.Equal(t, 429, mu.StatusCode)
}

func TestRun_MalformedReplies(t *testing.T) {
	tests := map[string]llmtypes.CompletionResponse{
		"empty reply":        {},
		"nameless tool call": htesting.ToolCallResponse("", htesting.Call("a", "", nil)),
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			o := New(htesting.NewMockLLMClient(resp), newRegistry(t), testConfig(), nil)
			_, err := o.Run(context.Background(), "q")
			var pe *errors.ModelProtocolError
			assert.True(t, stderrors.As(err, &pe), "got %v", err)
		})
	}
}

func TestRun_BudgetExhaustionTruncates(t *testing.T) {
	client := htesting.NewMockLLMClient(htesting.TextResponse("too late"))
	client.Delay = 500 * time.Millisecond
	cfg := testConfig()
	cfg.Budget = 30 * time.Millisecond
	cfg.FallbackText = "out of time"
	o := New(client, newRegistry(t), cfg, nil)

	start := time.Now()
	res, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "out of time", res.FinalText)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestRun_BudgetExhaustedDuringTools(t *testing.T) {
	blocking := tools.ToolSpec{
		Name:   tools.SearchPapersToolName,
		Params: map[string]tools.ParamSpec{"query": {Type: tools.TypeString, Required: true}},
		Handler: func(ctx context.Context, args tools.Arguments) (tools.Output, error) {
			<-ctx.Done()
			return tools.Output{}, ctx.Err()
		},
	}
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("Searching arXiv", htesting.Call("a", tools.SearchPapersToolName, map[string]interface{}{"query": "q"})),
		htesting.TextResponse("never reached"),
	)
	cfg := testConfig()
	cfg.Budget = 50 * time.Millisecond
	o := New(client, newRegistry(t, blocking), cfg, nil)

	res, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "Searching arXiv", res.FinalText)
	assert.Equal(t, 1, client.CallCount())
	assertPairing(t, res.Conversation)
}

func TestRun_CallerCancellation(t *testing.T) {
	client := htesting.NewMockLLMClient(htesting.TextResponse("late"))
	client.Delay = time.Second
	o := New(client, newRegistry(t), testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := o.Run(ctx, "q")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_ParallelToolsKeepIssueOrder(t *testing.T) {
	var inFlight, peak int32
	delays := map[string]time.Duration{"slow": 40 * time.Millisecond, "medium": 20 * time.Millisecond, "fast": 0}
	spec := tools.ToolSpec{
		Name:   "lookup",
		Params: map[string]tools.ParamSpec{"key": {Type: tools.TypeString, Required: true}},
		Handler: func(ctx context.Context, args tools.Arguments) (tools.Output, error) {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			key := args.String("key", "")
			time.Sleep(delays[key])
			return tools.Output{Content: "result for " + key}, nil
		},
	}

	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("",
			htesting.Call("", "lookup", map[string]interface{}{"key": "slow"}),
			htesting.Call("dup", "lookup", map[string]interface{}{"key": "medium"}),
			htesting.Call("dup", "lookup", map[string]interface{}{"key": "fast"}),
		),
		htesting.TextResponse("done"),
	)
	o := New(client, newRegistry(t, spec), testConfig(), nil)

	res, err := o.Run(context.Background(), "q")
	require.NoError(t, err)

	assistant := res.Conversation[1].(AssistantMessage)
	require.Len(t, assistant.ToolCalls, 3)
	assert.NotEmpty(t, assistant.ToolCalls[0].ID, "missing id is generated")
	assert.Equal(t, "dup", assistant.ToolCalls[1].ID)
	assert.NotEqual(t, "dup", assistant.ToolCalls[2].ID, "duplicate id is replaced")

	for i, key := range []string{"slow", "medium", "fast"} {
		outcome := res.Conversation[2+i].(ToolOutcome)
		assert.Equal(t, assistant.ToolCalls[i].ID, outcome.CallID)
		assert.Equal(t, "result for "+key, outcome.Result.Content)
	}
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "calls should overlap")
	assertPairing(t, res.Conversation)
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	spec := tools.ToolSpec{
		Name: "work",
		Handler: func(ctx context.Context, args tools.Arguments) (tools.Output, error) {
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			return tools.Output{Content: "ok"}, nil
		},
	}
	var calls []llmtypes.ToolCall
	for i := 0; i < 6; i++ {
		calls = append(calls, htesting.Call(fmt.Sprintf("c%d", i), "work", nil))
	}
	client := htesting.NewMockLLMClient(htesting.ToolCallResponse("", calls...), htesting.TextResponse("done"))
	cfg := testConfig()
	cfg.MaxToolConcurrency = 2
	o := New(client, newRegistry(t, spec), cfg, nil)

	_, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_UnknownToolIsRecoverable(t *testing.T) {
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("", htesting.Call("x", "search_everything", nil)),
		htesting.TextResponse("I'll answer without that tool."),
	)
	o := New(client, newRegistry(t, paperTool(nil, nil)), testConfig(), nil)

	res, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	outcome := res.Conversation[2].(ToolOutcome)
	assert.True(t, outcome.Result.IsError)
	assert.Contains(t, outcome.Result.Content, "search_everything")
}

func TestRun_CitationsAreDeduplicated(t *testing.T) {
	found := fivePapers()
	client := htesting.NewMockLLMClient(
		htesting.ToolCallResponse("",
			htesting.Call("a", tools.SearchPapersToolName, map[string]interface{}{"query": "one"}),
			htesting.Call("b", tools.SearchPapersToolName, map[string]interface{}{"query": "two"}),
		),
		htesting.ToolCallResponse("", htesting.Call("c", tools.SearchPapersToolName, map[string]interface{}{"query": "three"})),
		htesting.TextResponse("See 2403.00001, 2403.00001v2 and 2403.00005."),
	)
	o := New(client, newRegistry(t, paperTool(found, nil)), testConfig(), nil)

	res, err := o.Run(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, res.CitedPapers, 2)
	assert.Equal(t, "2403.00001", res.CitedPapers[0].ID)
	assert.Equal(t, "2403.00005", res.CitedPapers[1].ID)
}

func TestRun_EmptyQuestion(t *testing.T) {
	client := htesting.NewMockLLMClient(htesting.TextResponse("x"))
	o := New(client, newRegistry(t), testConfig(), nil)

	_, err := o.Run(context.Background(), "   ")
	assert.Error(t, err)
	assert.Zero(t, client.CallCount())
}
