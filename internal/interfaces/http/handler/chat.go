// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"ai-commerce-api/internal/application/assistant"
	"ai-commerce-api/internal/interfaces/http/dto"
	pkgerrors "ai-commerce-api/pkg/errors"
	"ai-commerce-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	orchestrator *assistant.Orchestrator
}

// NewChatHandler 创建对话处理器
func NewChatHandler(orchestrator *assistant.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// Chat 发送消息（阻塞式）
// @Summary 发送购物对话消息
// @Description 发送一条用户消息，返回完整的助手回复及检索命中的商品
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "对话请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	turn := req.ToTurn()
	if strings.TrimSpace(turn.ConversationID) == "" {
		turn.ConversationID = uuid.NewString()
	}
	ctx = logger.WithContext(ctx, logger.ConversationIDKey, turn.ConversationID)

	outcome, err := h.orchestrator.HandleTurn(ctx, turn)
	if err != nil {
		h.writeTurnError(c, err)
		return
	}

	dto.Success(c, dto.FromOutcome(outcome))
}

// ChatStream 发送消息（SSE 流式）
// @Summary 流式购物对话
// @Description 发送一条用户消息，通过 SSE 增量返回助手回复
// @Tags Chat
// @Accept json
// @Produce text/event-stream
// @Param body body dto.ChatRequest true "对话请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/chat/stream [post]
func (h *ChatHandler) ChatStream(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	turn := req.ToTurn()
	if strings.TrimSpace(turn.ConversationID) == "" {
		turn.ConversationID = uuid.NewString()
	}
	ctx = logger.WithContext(ctx, logger.ConversationIDKey, turn.ConversationID)

	events, err := h.orchestrator.StreamTurn(ctx, turn)
	if err != nil {
		h.writeTurnError(c, err)
		return
	}

	// SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				c.SSEvent("done", "[DONE]")
				return false
			}
			return h.writeStreamEvent(c, ev)

		case <-c.Request.Context().Done():
			// 客户端断开
			return false
		}
	})
}

func (h *ChatHandler) writeStreamEvent(c *gin.Context, ev assistant.StreamEvent) bool {
	switch ev.Type {
	case assistant.StreamEventContent:
		c.SSEvent("chunk", dto.StreamChunk{
			Type:    "chunk",
			Content: ev.Content,
		})
		return true

	case assistant.StreamEventComplete:
		payload := dto.StreamComplete{
			Type:     string(assistant.StreamEventComplete),
			ToolUsed: "none",
		}
		if ev.Outcome != nil {
			resp := dto.FromOutcome(ev.Outcome)
			payload.Reply = resp.Reply
			payload.Products = resp.Products
			payload.ToolUsed = resp.ToolUsed
			payload.Degraded = resp.Degraded
		}
		c.SSEvent("complete", payload)
		return true

	default:
		return true
	}
}

func (h *ChatHandler) writeTurnError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		detail := &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(ctx, "chat turn failed", err)
		}
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detail)
		return
	}

	logger.Error(ctx, "chat turn failed", err)
	dto.InternalError(c, "failed to handle chat turn")
}
