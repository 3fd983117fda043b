package assistant

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/application/retrieval"
	"ai-commerce-api/internal/domain/entity"
	obseino "ai-commerce-api/internal/observability/eino"
	pkgerrors "ai-commerce-api/pkg/errors"
	"ai-commerce-api/pkg/logger"
	"ai-commerce-api/pkg/metrics"
	"ai-commerce-api/pkg/tracer"
)

const maxMessageLen = 8000

// SearchEngine 商品检索能力（port），由 retrieval.Engine 实现。
type SearchEngine interface {
	Search(ctx context.Context, in retrieval.SearchInput) (*retrieval.SearchOutput, error)
}

// Config 编排器配置。
type Config struct {
	Provider           string
	PriceFilterEnabled bool
}

// Orchestrator 驱动一轮对话走完
// received -> routed -> [retrieving ->] composing -> done 的状态机。
// 检索与模型故障降级为道歉回复，不中断对话。
type Orchestrator struct {
	models ChatModelProvider
	router *Router
	engine SearchEngine
	cfg    Config
}

func NewOrchestrator(models ChatModelProvider, router *Router, engine SearchEngine, cfg Config) *Orchestrator {
	return &Orchestrator{
		models: models,
		router: router,
		engine: engine,
		cfg:    cfg,
	}
}

// ValidateTurn 校验一轮输入。
func ValidateTurn(turn *entity.ConversationTurn) error {
	if turn == nil {
		return pkgerrors.ErrInvalidTurn
	}
	msg := strings.TrimSpace(turn.Message)
	if msg == "" && !turn.HasImage() {
		return pkgerrors.ErrEmptyMessage
	}
	if len(msg) > maxMessageLen {
		return pkgerrors.New(pkgerrors.CodeInvalidTurn, "message too long").
			WithDetail(fmt.Sprintf("message exceeds %d characters", maxMessageLen))
	}
	if turn.HasImage() {
		img := strings.TrimSpace(turn.ImageData)
		if !strings.HasPrefix(img, "data:image/") &&
			!strings.HasPrefix(img, "http://") &&
			!strings.HasPrefix(img, "https://") {
			// 裸 base64 也接受，NormalizedImage 会补上 data URL 前缀
			if !isBase64(img) {
				return pkgerrors.ErrBadImageInput
			}
		}
	}
	return nil
}

func isBase64(s string) bool {
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return true
	}
	_, err := base64.RawStdEncoding.DecodeString(s)
	return err == nil
}

// HandleTurn 阻塞式处理一轮对话。
func (o *Orchestrator) HandleTurn(ctx context.Context, turn *entity.ConversationTurn) (*entity.TurnOutcome, error) {
	ctx, span := tracer.Start(ctx, "assistant.HandleTurn")
	defer span.End()

	ctx = obseino.WithProvider(ctx, o.cfg.Provider)

	start := time.Now()
	outcome, err := o.handleTurn(ctx, turn)

	status := "ok"
	if err != nil {
		status = "error"
	} else if outcome != nil && outcome.Degraded {
		status = "degraded"
	}
	metrics.ChatTurnsTotal.WithLabelValues("blocking", status).Inc()
	metrics.ChatTurnDuration.WithLabelValues("blocking").Observe(time.Since(start).Seconds())
	return outcome, err
}

func (o *Orchestrator) handleTurn(ctx context.Context, turn *entity.ConversationTurn) (*entity.TurnOutcome, error) {
	if err := ValidateTurn(turn); err != nil {
		return nil, err
	}

	outcome := &entity.TurnOutcome{
		ConversationID: turn.ConversationID,
		ToolUsed:       entity.ToolNone,
		State:          entity.TurnStateReceived,
	}

	msgs := buildMessages(turn)

	decision, routeMsg, err := o.route(ctx, turn, msgs)
	if err != nil {
		// 模型提供方故障：降级为道歉回复
		logger.Error(ctx, "routing failed, degrading", err)
		outcome.Reply = degradedReply
		outcome.Degraded = true
		outcome.State = entity.TurnStateDone
		return outcome, nil
	}
	outcome.State = entity.TurnStateRouted

	if decision.IsRetrieval() {
		outcome.ToolUsed = decision.Tool
		outcome.State = entity.TurnStateRetrieving

		results, err := o.retrieve(ctx, turn, decision)
		if err != nil {
			logger.Error(ctx, "retrieval failed, degrading", err,
				"tool", string(decision.Tool),
			)
			outcome.Reply = degradedReply
			outcome.Degraded = true
			outcome.State = entity.TurnStateDone
			return outcome, nil
		}
		outcome.Products = results
		outcome.State = entity.TurnStateComposing

		productContext := formatProductContext(results)
		composeMsgs := append(msgs, toolResultMessages(routeMsg, routeMsg.ToolCalls[0].ID, productContext)...)

		reply, err := o.compose(ctx, composeMsgs)
		if err != nil {
			// 模型组装失败但检索已成功：直接回吐商品清单
			logger.Error(ctx, "compose failed, falling back to product context", err)
			reply = productContext
			outcome.Degraded = true
		}
		outcome.Reply = reply
		outcome.State = entity.TurnStateDone
		return outcome, nil
	}

	// 纯对话：路由回复即最终回复
	outcome.State = entity.TurnStateComposing
	reply := strings.TrimSpace(routeMsg.Content)
	if reply == "" {
		reply, err = o.compose(ctx, msgs)
		if err != nil {
			logger.Error(ctx, "compose failed, degrading", err)
			reply = degradedReply
			outcome.Degraded = true
		}
	}
	outcome.Reply = reply
	outcome.State = entity.TurnStateDone
	return outcome, nil
}

// route 执行路由并消化可恢复的解码失败。
// 解码失败或决策与输入不符时回退为纯对话。
func (o *Orchestrator) route(ctx context.Context, turn *entity.ConversationTurn, msgs []*schema.Message) (*entity.ToolDecision, *schema.Message, error) {
	decision, routeMsg, err := o.router.Route(ctx, o.cfg.Provider, msgs)
	if err != nil {
		appErr := pkgerrors.AsAppError(err)
		if appErr.Code == pkgerrors.CodeRouterDecodeFailed && routeMsg != nil {
			logger.Warn(ctx, "tool call decode failed, falling back to conversation",
				"error", err.Error(),
			)
			return &entity.ToolDecision{Tool: entity.ToolNone}, routeMsg, nil
		}
		return nil, nil, err
	}

	if decision.Tool == entity.ToolSearchByImage && !turn.HasImage() {
		logger.Warn(ctx, "image tool routed without image input, falling back to conversation")
		return &entity.ToolDecision{Tool: entity.ToolNone}, routeMsg, nil
	}
	return decision, routeMsg, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, turn *entity.ConversationTurn, decision *entity.ToolDecision) ([]entity.SearchResult, error) {
	in := retrieval.SearchInput{
		Modality:  decision.Modality(),
		Query:     decision.Query,
		ImageData: turn.NormalizedImage(),
		TopK:      decision.TopK,
	}
	if o.cfg.PriceFilterEnabled {
		in.MaxPrice = decision.MaxPrice
	}

	out, err := o.engine.Search(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// compose 不带工具地调用模型生成最终回复。
func (o *Orchestrator) compose(ctx context.Context, msgs []*schema.Message) (string, error) {
	chatModel, err := o.models.Get(ctx, o.cfg.Provider)
	if err != nil {
		return "", err
	}
	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", fmt.Errorf("empty llm response")
	}
	return outMsg.Content, nil
}
