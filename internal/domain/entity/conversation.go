// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// Role 对话消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Modality 检索模态
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Valid 判断模态是否合法
func (m Modality) Valid() bool {
	return m == ModalityText || m == ModalityImage
}

// TurnState 单轮对话的处理状态
type TurnState string

// 状态机: received -> routed -> [retrieving ->] composing -> done
// 任一阶段失败进入 failed，组装阶段可降级为道歉回复后仍到 done
const (
	TurnStateReceived   TurnState = "received"
	TurnStateRouted     TurnState = "routed"
	TurnStateRetrieving TurnState = "retrieving"
	TurnStateComposing  TurnState = "composing"
	TurnStateDone       TurnState = "done"
	TurnStateFailed     TurnState = "failed"
)

// Message 对话历史中的一条消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationTurn 一次用户输入，可附带 base64 data URL 形式的图片
type ConversationTurn struct {
	ConversationID string    `json:"conversation_id"`
	Message        string    `json:"message"`
	ImageData      string    `json:"image_data,omitempty"`
	History        []Message `json:"history,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// HasImage 判断本轮是否带图片输入
func (t *ConversationTurn) HasImage() bool {
	return strings.TrimSpace(t.ImageData) != ""
}

// NormalizedImage 返回统一格式的图片载荷。
// 裸 base64 补上 data URL 前缀，data URL 与 http(s) URL 原样返回。
func (t *ConversationTurn) NormalizedImage() string {
	img := strings.TrimSpace(t.ImageData)
	if img == "" {
		return ""
	}
	if strings.HasPrefix(img, "data:image/") ||
		strings.HasPrefix(img, "http://") ||
		strings.HasPrefix(img, "https://") {
		return img
	}
	return "data:image/jpeg;base64," + img
}

// ToolName 可路由的工具名称
type ToolName string

const (
	ToolSearchByText  ToolName = "search_products_by_text"
	ToolSearchByImage ToolName = "search_products_by_image"
	// ToolNone 表示模型选择直接对话，不做检索
	ToolNone ToolName = "none"
)

// ToolDecision 路由结果：选中的工具与解码后的参数
type ToolDecision struct {
	Tool     ToolName `json:"tool"`
	Query    string   `json:"query,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	TopK     int      `json:"top_k,omitempty"`
}

// IsRetrieval 判断该决策是否触发检索
func (d *ToolDecision) IsRetrieval() bool {
	return d.Tool == ToolSearchByText || d.Tool == ToolSearchByImage
}

// Modality 返回该决策对应的检索模态
func (d *ToolDecision) Modality() Modality {
	if d.Tool == ToolSearchByImage {
		return ModalityImage
	}
	return ModalityText
}

// SearchResult 单条检索命中
type SearchResult struct {
	Product  Product  `json:"product"`
	Score    float64  `json:"score"`
	Modality Modality `json:"modality"`
}

// TurnOutcome 一轮对话的最终产出
type TurnOutcome struct {
	ConversationID string         `json:"conversation_id"`
	Reply          string         `json:"reply"`
	Products       []SearchResult `json:"products,omitempty"`
	ToolUsed       ToolName       `json:"tool_used"`
	State          TurnState      `json:"state"`
	Degraded       bool           `json:"degraded,omitempty"`
}
