package assistant

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"ai-commerce-api/internal/domain/entity"
)

// buildMessages 由一轮输入构造发给模型的消息序列。
// 带图片时用户消息使用多模态 MultiContent。
func buildMessages(turn *entity.ConversationTurn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turn.History)+2)
	msgs = append(msgs, schema.SystemMessage(systemPrompt))

	for _, m := range turn.History {
		switch m.Role {
		case entity.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		case entity.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}

	if turn.HasImage() {
		text := strings.TrimSpace(turn.Message)
		if text == "" {
			text = "What products do you have that look like this image?"
		}
		msgs = append(msgs, &schema.Message{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: text},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL: turn.NormalizedImage(),
					},
				},
			},
		})
		return msgs
	}

	msgs = append(msgs, schema.UserMessage(turn.Message))
	return msgs
}

// toolResultMessages 将工具调用与其结果追加为模型可见的消息。
func toolResultMessages(assistantMsg *schema.Message, toolCallID, content string) []*schema.Message {
	return []*schema.Message{
		assistantMsg,
		schema.ToolMessage(content, toolCallID),
	}
}
