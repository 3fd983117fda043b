package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/domain/entity"
	"ai-commerce-api/pkg/logger"
	"ai-commerce-api/pkg/metrics"
	"ai-commerce-api/pkg/tracer"
)

// Router 工具路由器：让模型在绑定的工具中做一次选择。
type Router struct {
	models ChatModelProvider
}

// ChatModelProvider 提供按 provider 名称获取 ChatModel 的能力（port）。
type ChatModelProvider interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

func NewRouter(models ChatModelProvider) *Router {
	return &Router{models: models}
}

// Route 执行一次路由调用。
// 返回决策与模型的原始回复：无工具调用时决策为 ToolNone，
// 回复内容即可直接作为对话答案。
func (r *Router) Route(ctx context.Context, provider string, msgs []*schema.Message) (*entity.ToolDecision, *schema.Message, error) {
	ctx, span := tracer.Start(ctx, "assistant.Route")
	defer span.End()

	baseModel, err := r.models.Get(ctx, provider)
	if err != nil {
		return nil, nil, err
	}

	// 如果模型支持，绑定工具信息
	chatModel := baseModel
	if tcm, ok := baseModel.(model.ToolCallingChatModel); ok {
		withTools, err := tcm.WithTools(toolInfos())
		if err == nil && withTools != nil {
			chatModel = withTools
		}
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, nil, err
	}
	if outMsg == nil {
		return nil, nil, fmt.Errorf("empty llm response")
	}

	if len(outMsg.ToolCalls) == 0 {
		metrics.ToolDecisionsTotal.WithLabelValues(string(entity.ToolNone)).Inc()
		return &entity.ToolDecision{Tool: entity.ToolNone}, outMsg, nil
	}

	decision, err := decodeToolCall(outMsg.ToolCalls[0])
	if err != nil {
		return nil, outMsg, err
	}

	metrics.ToolDecisionsTotal.WithLabelValues(string(decision.Tool)).Inc()
	logger.Debug(ctx, "tool routed",
		"tool", string(decision.Tool),
		"query", decision.Query,
	)
	return decision, outMsg, nil
}
