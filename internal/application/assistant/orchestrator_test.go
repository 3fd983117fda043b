package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/application/retrieval"
	"ai-commerce-api/internal/domain/entity"
	pkgerrors "ai-commerce-api/pkg/errors"
)

// fakeChatModel implements model.ToolCallingChatModel for testing
type fakeChatModel struct {
	generateFn func(calls int, msgs []*schema.Message) (*schema.Message, error)
	streamFn   func(msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error)
	calls      int
}

func (m *fakeChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	return m.generateFn(m.calls, msgs)
}

func (m *fakeChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.streamFn == nil {
		return nil, errors.New("stream not configured")
	}
	return m.streamFn(msgs)
}

func (m *fakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

type fakeProvider struct {
	chatModel model.BaseChatModel
	err       error
}

func (p *fakeProvider) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	return p.chatModel, p.err
}

type fakeSearchEngine struct {
	searchFn func(in retrieval.SearchInput) (*retrieval.SearchOutput, error)
	lastIn   *retrieval.SearchInput
}

func (e *fakeSearchEngine) Search(ctx context.Context, in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
	e.lastIn = &in
	if e.searchFn != nil {
		return e.searchFn(in)
	}
	return &retrieval.SearchOutput{}, nil
}

func newTestOrchestrator(chatModel model.BaseChatModel, engine SearchEngine, priceFilter bool) *Orchestrator {
	provider := &fakeProvider{chatModel: chatModel}
	return NewOrchestrator(provider, NewRouter(provider), engine, Config{
		Provider:           "openai",
		PriceFilterEnabled: priceFilter,
	})
}

func assistantToolCallMsg(name, args string) *schema.Message {
	return &schema.Message{
		Role:      schema.Assistant,
		ToolCalls: []schema.ToolCall{toolCall(name, args)},
	}
}

func sampleResults() []entity.SearchResult {
	return []entity.SearchResult{
		{
			Product:  entity.Product{ID: "p1", Name: "Trail Runner", Price: 89.99, Category: "footwear"},
			Score:    0.875,
			Modality: entity.ModalityText,
		},
	}
}

func TestValidateTurn(t *testing.T) {
	long := strings.Repeat("a", maxMessageLen+1)

	tests := []struct {
		name     string
		turn     *entity.ConversationTurn
		wantCode pkgerrors.ErrorCode
	}{
		{"nil turn", nil, pkgerrors.CodeInvalidTurn},
		{"empty message", &entity.ConversationTurn{}, pkgerrors.CodeEmptyMessage},
		{"message too long", &entity.ConversationTurn{Message: long}, pkgerrors.CodeInvalidTurn},
		{"bad image payload", &entity.ConversationTurn{ImageData: "not-a-data-url"}, pkgerrors.CodeBadImageInput},
		{"valid text", &entity.ConversationTurn{Message: "hello"}, ""},
		{"valid data url image", &entity.ConversationTurn{ImageData: "data:image/png;base64,xxxx"}, ""},
		{"valid https image", &entity.ConversationTurn{ImageData: "https://example.com/a.jpg"}, ""},
		{"valid raw base64 image", &entity.ConversationTurn{ImageData: "/9j/4AAQSkZJRg=="}, ""},
		{"valid unpadded base64 image", &entity.ConversationTurn{ImageData: "/9j/4AAQSkZJRg"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurn(tt.turn)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := pkgerrors.AsAppError(err).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestHandleTurn_TextSearch(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		if calls == 1 {
			return assistantToolCallMsg("search_products_by_text", `{"query":"running shoes","max_price":100}`), nil
		}
		return schema.AssistantMessage("Check out the Trail Runner!", nil), nil
	}}
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return &retrieval.SearchOutput{Results: sampleResults()}, nil
	}}
	o := newTestOrchestrator(chatModel, engine, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{
		ConversationID: "c1",
		Message:        "find me running shoes under $100",
	})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if outcome.Reply != "Check out the Trail Runner!" {
		t.Errorf("reply = %q", outcome.Reply)
	}
	if outcome.ToolUsed != entity.ToolSearchByText {
		t.Errorf("tool = %s, want search_products_by_text", outcome.ToolUsed)
	}
	if len(outcome.Products) != 1 {
		t.Errorf("products = %d, want 1", len(outcome.Products))
	}
	if outcome.State != entity.TurnStateDone {
		t.Errorf("state = %s, want done", outcome.State)
	}
	if outcome.Degraded {
		t.Error("outcome should not be degraded")
	}
	if engine.lastIn == nil || engine.lastIn.MaxPrice == nil || *engine.lastIn.MaxPrice != 100 {
		t.Errorf("max price not forwarded to engine: %+v", engine.lastIn)
	}
	if engine.lastIn.Modality != entity.ModalityText {
		t.Errorf("modality = %s, want text", engine.lastIn.Modality)
	}
}

func TestHandleTurn_PriceFilterDisabled(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		if calls == 1 {
			return assistantToolCallMsg("search_products_by_text", `{"query":"shoes","max_price":100}`), nil
		}
		return schema.AssistantMessage("Here you go.", nil), nil
	}}
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return &retrieval.SearchOutput{Results: sampleResults()}, nil
	}}
	o := newTestOrchestrator(chatModel, engine, false)

	_, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if engine.lastIn.MaxPrice != nil {
		t.Errorf("max price forwarded despite filter disabled: %v", *engine.lastIn.MaxPrice)
	}
}

func TestHandleTurn_SmallTalk(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("Hello! How can I help you today?", nil), nil
	}}
	engine := &fakeSearchEngine{}
	o := newTestOrchestrator(chatModel, engine, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "hi"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if outcome.Reply != "Hello! How can I help you today?" {
		t.Errorf("reply = %q", outcome.Reply)
	}
	if outcome.ToolUsed != entity.ToolNone {
		t.Errorf("tool = %s, want none", outcome.ToolUsed)
	}
	if engine.lastIn != nil {
		t.Error("search engine should not be invoked for small talk")
	}
	if chatModel.calls != 1 {
		t.Errorf("model calls = %d, want 1", chatModel.calls)
	}
}

func TestHandleTurn_RouterFailureDegrades(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		return nil, errors.New("provider unavailable")
	}}
	o := newTestOrchestrator(chatModel, &fakeSearchEngine{}, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if !outcome.Degraded {
		t.Error("outcome should be degraded")
	}
	if outcome.Reply != degradedReply {
		t.Errorf("reply = %q, want degraded reply", outcome.Reply)
	}
	if outcome.State != entity.TurnStateDone {
		t.Errorf("state = %s, want done", outcome.State)
	}
}

func TestHandleTurn_RetrievalFailureDegrades(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		return assistantToolCallMsg("search_products_by_text", `{"query":"shoes"}`), nil
	}}
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return nil, errors.New("milvus down")
	}}
	o := newTestOrchestrator(chatModel, engine, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if !outcome.Degraded {
		t.Error("outcome should be degraded")
	}
	if outcome.Reply != degradedReply {
		t.Errorf("reply = %q, want degraded reply", outcome.Reply)
	}
	if outcome.ToolUsed != entity.ToolSearchByText {
		t.Errorf("tool = %s, want search_products_by_text", outcome.ToolUsed)
	}
}

func TestHandleTurn_ComposeFailureFallsBackToProducts(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		if calls == 1 {
			return assistantToolCallMsg("search_products_by_text", `{"query":"shoes"}`), nil
		}
		return nil, errors.New("provider timeout")
	}}
	results := sampleResults()
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return &retrieval.SearchOutput{Results: results}, nil
	}}
	o := newTestOrchestrator(chatModel, engine, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if !outcome.Degraded {
		t.Error("outcome should be degraded")
	}
	if outcome.Reply != formatProductContext(results) {
		t.Errorf("reply = %q, want raw product context", outcome.Reply)
	}
	if len(outcome.Products) != 1 {
		t.Errorf("products = %d, want 1 (hits kept on compose failure)", len(outcome.Products))
	}
}

func TestHandleTurn_DecodeFailureFallsBackToConversation(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		if calls == 1 {
			msg := assistantToolCallMsg("search_products_by_text", `{"query":`)
			return msg, nil
		}
		return schema.AssistantMessage("I can help you find products.", nil), nil
	}}
	engine := &fakeSearchEngine{}
	o := newTestOrchestrator(chatModel, engine, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "shoes"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if outcome.ToolUsed != entity.ToolNone {
		t.Errorf("tool = %s, want none", outcome.ToolUsed)
	}
	if outcome.Reply != "I can help you find products." {
		t.Errorf("reply = %q", outcome.Reply)
	}
	if engine.lastIn != nil {
		t.Error("search engine should not be invoked after decode failure")
	}
}

func TestHandleTurn_ImageSearch(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		if calls == 1 {
			return assistantToolCallMsg("search_products_by_image", ""), nil
		}
		return schema.AssistantMessage("This looks like the Trail Runner.", nil), nil
	}}
	engine := &fakeSearchEngine{searchFn: func(in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
		return &retrieval.SearchOutput{Results: sampleResults()}, nil
	}}
	o := newTestOrchestrator(chatModel, engine, true)

	// 只带图片不带文字,裸 base64 载荷
	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{
		ConversationID: "c2",
		ImageData:      "/9j/4AAQSkZJRg==",
	})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if outcome.ToolUsed != entity.ToolSearchByImage {
		t.Errorf("tool = %s, want search_products_by_image", outcome.ToolUsed)
	}
	if outcome.Reply != "This looks like the Trail Runner." {
		t.Errorf("reply = %q", outcome.Reply)
	}
	if engine.lastIn == nil {
		t.Fatal("search engine not invoked")
	}
	if engine.lastIn.Modality != entity.ModalityImage {
		t.Errorf("modality = %s, want image", engine.lastIn.Modality)
	}
	// 裸 base64 下发检索前补齐 data URL 前缀
	if engine.lastIn.ImageData != "data:image/jpeg;base64,/9j/4AAQSkZJRg==" {
		t.Errorf("image payload = %q, want normalized data URL", engine.lastIn.ImageData)
	}
}

func TestHandleTurn_ImageToolWithoutImageFallsBack(t *testing.T) {
	chatModel := &fakeChatModel{generateFn: func(calls int, msgs []*schema.Message) (*schema.Message, error) {
		if calls == 1 {
			return assistantToolCallMsg("search_products_by_image", ""), nil
		}
		return schema.AssistantMessage("Please upload a photo first.", nil), nil
	}}
	engine := &fakeSearchEngine{}
	o := newTestOrchestrator(chatModel, engine, true)

	outcome, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{Message: "find this"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if outcome.ToolUsed != entity.ToolNone {
		t.Errorf("tool = %s, want none", outcome.ToolUsed)
	}
	if engine.lastIn != nil {
		t.Error("search engine should not be invoked without image input")
	}
}

func TestHandleTurn_ValidationError(t *testing.T) {
	o := newTestOrchestrator(&fakeChatModel{}, &fakeSearchEngine{}, true)

	_, err := o.HandleTurn(context.Background(), &entity.ConversationTurn{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := pkgerrors.AsAppError(err).Code; got != pkgerrors.CodeEmptyMessage {
		t.Errorf("code = %s, want %s", got, pkgerrors.CodeEmptyMessage)
	}
}
