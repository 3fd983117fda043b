// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"ai-commerce-api/internal/domain/entity"
)

// ChatMessage 对话历史中的一条消息
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest 对话请求，message 与 image_data 至少给一个
type ChatRequest struct {
	ConversationID string        `json:"conversation_id,omitempty"`
	Message        string        `json:"message,omitempty"`
	ImageData      string        `json:"image_data,omitempty"`
	History        []ChatMessage `json:"history,omitempty"`
}

// ToTurn 转换为领域对象
func (r *ChatRequest) ToTurn() *entity.ConversationTurn {
	history := make([]entity.Message, 0, len(r.History))
	for _, m := range r.History {
		history = append(history, entity.Message{
			Role:    entity.Role(m.Role),
			Content: m.Content,
		})
	}
	return &entity.ConversationTurn{
		ConversationID: r.ConversationID,
		Message:        r.Message,
		ImageData:      r.ImageData,
		History:        history,
	}
}

// ProductResult 检索命中的商品
type ProductResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Score       float64 `json:"score"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	ConversationID string          `json:"conversation_id,omitempty"`
	Reply          string          `json:"reply"`
	Products       []ProductResult `json:"products,omitempty"`
	ToolUsed       string          `json:"tool_used"`
	Degraded       bool            `json:"degraded,omitempty"`
}

// FromOutcome 由领域产出构造响应
func FromOutcome(outcome *entity.TurnOutcome) *ChatResponse {
	resp := &ChatResponse{
		ConversationID: outcome.ConversationID,
		Reply:          outcome.Reply,
		ToolUsed:       string(outcome.ToolUsed),
		Degraded:       outcome.Degraded,
	}
	for _, r := range outcome.Products {
		resp.Products = append(resp.Products, ProductResult{
			ID:          r.Product.ID,
			Name:        r.Product.Name,
			Description: r.Product.Description,
			Category:    r.Product.Category,
			Price:       r.Product.Price,
			ImageURL:    r.Product.ImageURL,
			Score:       r.Score,
		})
	}
	return resp
}

// StreamChunk SSE content 事件载荷
type StreamChunk struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StreamComplete SSE complete 事件载荷
type StreamComplete struct {
	Type     string          `json:"type"`
	Reply    string          `json:"reply"`
	Products []ProductResult `json:"products,omitempty"`
	ToolUsed string          `json:"tool_used"`
	Degraded bool            `json:"degraded,omitempty"`
}
