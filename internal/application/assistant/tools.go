package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/domain/entity"
	pkgerrors "ai-commerce-api/pkg/errors"
)

// toolInfos 返回绑定给模型的工具定义。
func toolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: string(entity.ToolSearchByText),
			Desc: "Search the product catalog by a natural language description of what the customer wants.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "A short description of the product the customer is looking for",
					Required: true,
				},
				"max_price": {
					Type: schema.Number,
					Desc: "Optional price cap in dollars, set it when the customer names a budget",
				},
				"top_k": {
					Type: schema.Integer,
					Desc: "Optional number of products to return, default 5",
				},
			}),
		},
		{
			Name: string(entity.ToolSearchByImage),
			Desc: "Search the product catalog by visual similarity to the image the customer uploaded.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type: schema.String,
					Desc: "Optional extra keywords refining what to look for in the image",
				},
				"top_k": {
					Type: schema.Integer,
					Desc: "Optional number of products to return, default 5",
				},
			}),
		},
	}
}

// decodeToolCall 将模型返回的工具调用解码为路由决策。
// 未知工具名或参数不可解析返回 RouterDecode 错误。
func decodeToolCall(tc schema.ToolCall) (*entity.ToolDecision, error) {
	name := entity.ToolName(strings.TrimSpace(tc.Function.Name))
	if name != entity.ToolSearchByText && name != entity.ToolSearchByImage {
		return nil, pkgerrors.Wrap(fmt.Errorf("unknown tool: %s", tc.Function.Name), pkgerrors.CodeRouterDecodeFailed, "tool call decode failed")
	}

	var args struct {
		Query    string   `json:"query"`
		MaxPrice *float64 `json:"max_price,omitempty"`
		TopK     int      `json:"top_k,omitempty"`
	}
	raw := strings.TrimSpace(tc.Function.Arguments)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeRouterDecodeFailed, "tool call decode failed")
		}
	}

	if name == entity.ToolSearchByText && strings.TrimSpace(args.Query) == "" {
		return nil, pkgerrors.Wrap(fmt.Errorf("missing query argument"), pkgerrors.CodeRouterDecodeFailed, "tool call decode failed")
	}
	if args.MaxPrice != nil && *args.MaxPrice < 0 {
		return nil, pkgerrors.Wrap(fmt.Errorf("negative max_price"), pkgerrors.CodeRouterDecodeFailed, "tool call decode failed")
	}

	return &entity.ToolDecision{
		Tool:     name,
		Query:    strings.TrimSpace(args.Query),
		MaxPrice: args.MaxPrice,
		TopK:     args.TopK,
	}, nil
}
