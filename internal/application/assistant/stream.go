package assistant

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/domain/entity"
	obseino "ai-commerce-api/internal/observability/eino"
	"ai-commerce-api/pkg/logger"
	"ai-commerce-api/pkg/metrics"
	"ai-commerce-api/pkg/tracer"
)

// StreamEventType 流式事件类型。
type StreamEventType string

// 故障不单独成事件：降级回复作为 content 推送，complete 带 Degraded 标记。
const (
	StreamEventContent  StreamEventType = "content"
	StreamEventComplete StreamEventType = "complete"
)

// StreamEvent 流式处理过程中推送给调用方的事件。
// content 事件携带增量文本；complete 事件携带最终产出。
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Outcome *entity.TurnOutcome
}

// StreamTurn 流式处理一轮对话。路由与检索同步完成，
// 组装阶段按模型输出增量推送 content 事件，最后推送 complete。
// 输入校验失败同步返回错误；通道在处理结束后关闭。
func (o *Orchestrator) StreamTurn(ctx context.Context, turn *entity.ConversationTurn) (<-chan StreamEvent, error) {
	if err := ValidateTurn(turn); err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent, 16)
	go func() {
		defer close(ch)

		ctx, span := tracer.Start(ctx, "assistant.StreamTurn")
		defer span.End()

		ctx = obseino.WithProvider(ctx, o.cfg.Provider)

		metrics.ActiveStreams.Inc()
		defer metrics.ActiveStreams.Dec()

		start := time.Now()
		status := o.streamTurn(ctx, turn, ch)
		metrics.ChatTurnsTotal.WithLabelValues("stream", status).Inc()
		metrics.ChatTurnDuration.WithLabelValues("stream").Observe(time.Since(start).Seconds())
	}()
	return ch, nil
}

func (o *Orchestrator) streamTurn(ctx context.Context, turn *entity.ConversationTurn, ch chan<- StreamEvent) string {
	outcome := &entity.TurnOutcome{
		ConversationID: turn.ConversationID,
		ToolUsed:       entity.ToolNone,
		State:          entity.TurnStateReceived,
	}

	msgs := buildMessages(turn)

	decision, routeMsg, err := o.route(ctx, turn, msgs)
	if err != nil {
		logger.Error(ctx, "routing failed, degrading stream", err)
		return o.finishDegraded(ctx, ch, outcome)
	}
	outcome.State = entity.TurnStateRouted

	if decision.IsRetrieval() {
		outcome.ToolUsed = decision.Tool
		outcome.State = entity.TurnStateRetrieving

		results, err := o.retrieve(ctx, turn, decision)
		if err != nil {
			logger.Error(ctx, "retrieval failed, degrading stream", err,
				"tool", string(decision.Tool),
			)
			return o.finishDegraded(ctx, ch, outcome)
		}
		outcome.Products = results
		outcome.State = entity.TurnStateComposing

		productContext := formatProductContext(results)
		composeMsgs := append(msgs, toolResultMessages(routeMsg, routeMsg.ToolCalls[0].ID, productContext)...)

		reply, err := o.streamCompose(ctx, composeMsgs, ch)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return "canceled"
			}
			// 组装失败但检索已成功：回吐商品清单
			logger.Error(ctx, "stream compose failed, falling back to product context", err)
			if reply == "" {
				if !send(ctx, ch, StreamEvent{Type: StreamEventContent, Content: productContext}) {
					return "canceled"
				}
				reply = productContext
			}
			outcome.Degraded = true
		}
		outcome.Reply = reply
		outcome.State = entity.TurnStateDone
		if !send(ctx, ch, StreamEvent{Type: StreamEventComplete, Outcome: outcome}) {
			return "canceled"
		}
		if outcome.Degraded {
			return "degraded"
		}
		return "ok"
	}

	// 纯对话：路由回复即最终回复
	outcome.State = entity.TurnStateComposing
	reply := strings.TrimSpace(routeMsg.Content)
	if reply != "" {
		if !send(ctx, ch, StreamEvent{Type: StreamEventContent, Content: reply}) {
			return "canceled"
		}
	} else {
		reply, err = o.streamCompose(ctx, msgs, ch)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return "canceled"
			}
			logger.Error(ctx, "stream compose failed, degrading", err)
			return o.finishDegraded(ctx, ch, outcome)
		}
	}
	outcome.Reply = reply
	outcome.State = entity.TurnStateDone
	if !send(ctx, ch, StreamEvent{Type: StreamEventComplete, Outcome: outcome}) {
		return "canceled"
	}
	return "ok"
}

// streamCompose 不带工具地流式调用模型，增量推送 content 事件，
// 返回完整回复文本。
func (o *Orchestrator) streamCompose(ctx context.Context, msgs []*schema.Message, ch chan<- StreamEvent) (string, error) {
	chatModel, err := o.models.Get(ctx, o.cfg.Provider)
	if err != nil {
		return "", err
	}

	reader, err := streamModel(ctx, chatModel, msgs)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var b strings.Builder
	for {
		chunk, err := reader.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return b.String(), err
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		b.WriteString(chunk.Content)
		if !send(ctx, ch, StreamEvent{Type: StreamEventContent, Content: chunk.Content}) {
			return b.String(), context.Canceled
		}
	}
	return b.String(), nil
}

func streamModel(ctx context.Context, chatModel model.BaseChatModel, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	return chatModel.Stream(ctx, msgs)
}

func (o *Orchestrator) finishDegraded(ctx context.Context, ch chan<- StreamEvent, outcome *entity.TurnOutcome) string {
	outcome.Reply = degradedReply
	outcome.Degraded = true
	outcome.State = entity.TurnStateDone
	if !send(ctx, ch, StreamEvent{Type: StreamEventContent, Content: degradedReply}) {
		return "canceled"
	}
	if !send(ctx, ch, StreamEvent{Type: StreamEventComplete, Outcome: outcome}) {
		return "canceled"
	}
	return "degraded"
}

func send(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
