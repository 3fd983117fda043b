package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/application/retrieval"
	"ai-commerce-api/internal/domain/entity"
	pkgerrors "ai-commerce-api/pkg/errors"
)

func chunkStream(chunks ...string) *schema.StreamReader[*schema.Message] {
	msgs := make([]*schema.Message, 0, len(chunks))
	for _, c := range chunks {
		msgs = append(msgs, &schema.Message{Role: schema.Assistant, Content: c})
	}
	return schema.StreamReaderFromArray(msgs)
}

// collectEvents drains the stream with a timeout so a stuck
// goroutine fails the test instead of hanging it.
func collectEvents(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func TestStreamTurn_TextSearch(t *testing.T) {
	chatModel := &fakeChatModel{
		generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
			return assistantToolCallMsg("search_products_by_text", `{"query":"shoes"}`), nil
		},
		streamFn: func(msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
			return chunkStream("Check out ", "the Trail ", "Runner!"), nil
		},
	}
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return &retrieval.SearchOutput{Results: sampleResults()}, nil
	}}
	o := newTestOrchestrator(chatModel, engine, true)

	ch, err := o.StreamTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	events := collectEvents(t, ch)

	var b strings.Builder
	var complete *StreamEvent
	for i := range events {
		switch events[i].Type {
		case StreamEventContent:
			b.WriteString(events[i].Content)
		case StreamEventComplete:
			complete = &events[i]
		}
	}
	if complete == nil {
		t.Fatal("no complete event received")
	}
	// 增量内容与最终回复一致
	if b.String() != complete.Outcome.Reply {
		t.Errorf("streamed content %q != reply %q", b.String(), complete.Outcome.Reply)
	}
	if complete.Outcome.Reply != "Check out the Trail Runner!" {
		t.Errorf("reply = %q", complete.Outcome.Reply)
	}
	if complete.Outcome.ToolUsed != entity.ToolSearchByText {
		t.Errorf("tool = %s, want search_products_by_text", complete.Outcome.ToolUsed)
	}
	if len(complete.Outcome.Products) != 1 {
		t.Errorf("products = %d, want 1", len(complete.Outcome.Products))
	}
	if complete.Outcome.Degraded {
		t.Error("outcome should not be degraded")
	}
	if events[len(events)-1].Type != StreamEventComplete {
		t.Error("complete must be the last event")
	}
}

func TestStreamTurn_SmallTalk(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("Hi there!", nil), nil
	}}
	o := newTestOrchestrator(chatModel, &fakeSearchEngine{}, true)

	ch, err := o.StreamTurn(context.Background(), &entity.ConversationTurn{Message: "hi"})
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	events := collectEvents(t, ch)

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (content + complete)", len(events))
	}
	if events[0].Type != StreamEventContent || events[0].Content != "Hi there!" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Type != StreamEventComplete {
		t.Errorf("second event = %+v", events[1])
	}
	if events[1].Outcome.Reply != "Hi there!" {
		t.Errorf("reply = %q", events[1].Outcome.Reply)
	}
	if events[1].Outcome.ToolUsed != entity.ToolNone {
		t.Errorf("tool = %s, want none", events[1].Outcome.ToolUsed)
	}
}

func TestStreamTurn_RouterFailureDegrades(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		return nil, errors.New("provider unavailable")
	}}
	o := newTestOrchestrator(chatModel, &fakeSearchEngine{}, true)

	ch, err := o.StreamTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	events := collectEvents(t, ch)

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != StreamEventContent || events[0].Content != degradedReply {
		t.Errorf("first event = %+v, want degraded reply content", events[0])
	}
	if !events[1].Outcome.Degraded {
		t.Error("outcome should be degraded")
	}
}

func TestStreamTurn_ComposeFailureFallsBackToProducts(t *testing.T) {
	chatModel := &fakeChatModel{
		generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
			return assistantToolCallMsg("search_products_by_text", `{"query":"shoes"}`), nil
		},
		streamFn: func(msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
			return nil, errors.New("provider timeout")
		},
	}
	results := sampleResults()
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return &retrieval.SearchOutput{Results: results}, nil
	}}
	o := newTestOrchestrator(chatModel, engine, true)

	ch, err := o.StreamTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	events := collectEvents(t, ch)

	last := events[len(events)-1]
	if last.Type != StreamEventComplete {
		t.Fatalf("last event = %s, want complete", last.Type)
	}
	if !last.Outcome.Degraded {
		t.Error("outcome should be degraded")
	}
	if last.Outcome.Reply != formatProductContext(results) {
		t.Errorf("reply = %q, want raw product context", last.Outcome.Reply)
	}
	if len(last.Outcome.Products) != 1 {
		t.Errorf("products = %d, want 1", len(last.Outcome.Products))
	}
}

func TestStreamTurn_CancelStopsEmission(t *testing.T) {
	// 无限流模拟长回复,验证取消后不再推送事件
	chatModel := &fakeChatModel{
		generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("", nil), nil
		},
		streamFn: func(msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
			sr, sw := schema.Pipe[*schema.Message](1)
			go func() {
				defer sw.Close()
				for {
					closed := sw.Send(&schema.Message{Role: schema.Assistant, Content: "chunk "}, nil)
					if closed {
						return
					}
				}
			}()
			return sr, nil
		},
	}
	o := newTestOrchestrator(chatModel, &fakeSearchEngine{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := o.StreamTurn(ctx, &entity.ConversationTurn{Message: "tell me a story"})
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			if ev.Type != StreamEventContent {
				t.Fatalf("event = %s, want content", ev.Type)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for content event")
		}
	}
	cancel()

	// 取消后通道应关闭,缓冲中残留的 content 可以读到,但不会再有 complete
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type == StreamEventComplete {
				t.Fatal("complete event emitted after cancel")
			}
		case <-timeout:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestStreamTurn_ValidationError(t *testing.T) {
	o := newTestOrchestrator(&fakeChatModel{}, &fakeSearchEngine{}, true)

	ch, err := o.StreamTurn(context.Background(), &entity.ConversationTurn{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if ch != nil {
		t.Error("channel must be nil on validation error")
	}
	if got := pkgerrors.AsAppError(err).Code; got != pkgerrors.CodeEmptyMessage {
		t.Errorf("code = %s, want %s", got, pkgerrors.CodeEmptyMessage)
	}
}
