package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ilkoid/vitrina-ai/pkg/llm"
)

func TestChainContextValues(t *testing.T) {
	chainCtx := NewChainContext("посоветуй чайник")

	if chainCtx.UserQuery() != "посоветуй чайник" {
		t.Errorf("unexpected user query: %s", chainCtx.UserQuery())
	}

	chainCtx.Set("category", "бытовая техника")
	if got := chainCtx.GetString("category"); got != "бытовая техника" {
		t.Errorf("expected category value, got %q", got)
	}

	if got := chainCtx.GetString("missing"); got != "" {
		t.Errorf("expected empty string for missing key, got %q", got)
	}

	chainCtx.Set("limit", 5)
	if got := chainCtx.GetString("limit"); got != "" {
		t.Errorf("expected empty string for non-string value, got %q", got)
	}

	v, ok := chainCtx.Get("limit")
	if !ok || v.(int) != 5 {
		t.Errorf("expected limit=5, got %v (ok=%v)", v, ok)
	}
}

func TestChainContextMessages(t *testing.T) {
	chainCtx := NewChainContext("query")

	chainCtx.AppendMessage(llm.UserMessage("привет"))
	chainCtx.AppendMessage(llm.Message{Role: llm.RoleAssistant, Content: "здравствуйте"})

	msgs := chainCtx.GetMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	// Копия не должна влиять на внутреннее состояние
	msgs[0].Content = "mutated"
	if chainCtx.GetMessages()[0].Content != "привет" {
		t.Error("GetMessages must return a copy")
	}
}

func TestSequentialExecutor(t *testing.T) {
	t.Run("runs all steps in order", func(t *testing.T) {
		var order []string
		exec := NewSequentialExecutor("test",
			NewStepFunc("first", func(ctx context.Context, c *ChainContext) (NextAction, error) {
				order = append(order, "first")
				return ActionContinue, nil
			}),
			NewStepFunc("second", func(ctx context.Context, c *ChainContext) (NextAction, error) {
				order = append(order, "second")
				c.SetResult("done")
				return ActionContinue, nil
			}),
		)

		out, err := exec.Execute(context.Background(), NewChainContext("q"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.StepsRun != 2 {
			t.Errorf("expected 2 steps run, got %d", out.StepsRun)
		}
		if out.Result != "done" {
			t.Errorf("expected result 'done', got %q", out.Result)
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected execution order: %v", order)
		}
	})

	t.Run("break stops the chain", func(t *testing.T) {
		secondRan := false
		exec := NewSequentialExecutor("test",
			NewStepFunc("breaker", func(ctx context.Context, c *ChainContext) (NextAction, error) {
				c.SetResult("early")
				return ActionBreak, nil
			}),
			NewStepFunc("never", func(ctx context.Context, c *ChainContext) (NextAction, error) {
				secondRan = true
				return ActionContinue, nil
			}),
		)

		out, err := exec.Execute(context.Background(), NewChainContext("q"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if secondRan {
			t.Error("step after ActionBreak must not run")
		}
		if out.Result != "early" {
			t.Errorf("expected result 'early', got %q", out.Result)
		}
	})

	t.Run("step error aborts with wrapped error", func(t *testing.T) {
		stepErr := errors.New("boom")
		exec := NewSequentialExecutor("test",
			NewStepFunc("failing", func(ctx context.Context, c *ChainContext) (NextAction, error) {
				return ActionError, stepErr
			}),
		)

		_, err := exec.Execute(context.Background(), NewChainContext("q"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, stepErr) {
			t.Errorf("expected wrapped step error, got: %v", err)
		}
	})

	t.Run("cancelled context stops execution", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		exec := NewSequentialExecutor("test",
			NewStepFunc("never", func(ctx context.Context, c *ChainContext) (NextAction, error) {
				t.Error("step must not run with cancelled context")
				return ActionContinue, nil
			}),
		)

		_, err := exec.Execute(ctx, NewChainContext("q"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})
}
