package assistant

import (
	"testing"

	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/domain/entity"
	pkgerrors "ai-commerce-api/pkg/errors"
)

func toolCall(name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID: "call-1",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestDecodeToolCall_TextSearch(t *testing.T) {
	decision, err := decodeToolCall(toolCall("search_products_by_text", `{"query":"running shoes","max_price":100,"top_k":3}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decision.Tool != entity.ToolSearchByText {
		t.Errorf("tool = %q, want %q", decision.Tool, entity.ToolSearchByText)
	}
	if decision.Query != "running shoes" {
		t.Errorf("query = %q", decision.Query)
	}
	if decision.MaxPrice == nil || *decision.MaxPrice != 100 {
		t.Errorf("max_price = %v, want 100", decision.MaxPrice)
	}
	if decision.TopK != 3 {
		t.Errorf("top_k = %d, want 3", decision.TopK)
	}
}

func TestDecodeToolCall_ImageSearchWithoutArgs(t *testing.T) {
	decision, err := decodeToolCall(toolCall("search_products_by_image", ""))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decision.Tool != entity.ToolSearchByImage {
		t.Errorf("tool = %q, want %q", decision.Tool, entity.ToolSearchByImage)
	}
	if decision.MaxPrice != nil {
		t.Errorf("max_price should be nil, got %v", *decision.MaxPrice)
	}
}

func TestDecodeToolCall_Errors(t *testing.T) {
	tests := []struct {
		name string
		tc   schema.ToolCall
	}{
		{"unknown tool", toolCall("delete_all_products", `{}`)},
		{"malformed json", toolCall("search_products_by_text", `{"query":`)},
		{"missing query", toolCall("search_products_by_text", `{"top_k":5}`)},
		{"negative max_price", toolCall("search_products_by_text", `{"query":"shoes","max_price":-1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeToolCall(tt.tc)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr := pkgerrors.AsAppError(err)
			if appErr.Code != pkgerrors.CodeRouterDecodeFailed {
				t.Errorf("code = %s, want %s", appErr.Code, pkgerrors.CodeRouterDecodeFailed)
			}
		})
	}
}
