// Package assistant 实现购物助手的单轮对话编排：
// 路由 -> 检索 -> 组装回复，支持阻塞与流式两种输出。
package assistant

import (
	"fmt"
	"strings"

	"ai-commerce-api/internal/domain/entity"
)

const systemPrompt = `You are ShopBot, a friendly and helpful shopping assistant for an online store.

You help customers find products, answer questions about them, and make recommendations.

You have two tools available:
- search_products_by_text: use it when the customer describes what they are looking for in words.
- search_products_by_image: use it when the customer has uploaded a photo of something they want to find.

Only call a tool when the customer is actually looking for products. For greetings, small talk or questions about previous answers, reply directly.

When presenting products, always mention the product name and price. Keep your answers concise and conversational. If no products were found, say so honestly and suggest the customer rephrase their request.`

// degradedReply 检索链路故障时的兜底回复。
const degradedReply = "I'm sorry, I'm having trouble searching our products right now. Please try again in a moment."

// formatProductContext 将检索命中渲染为喂给模型的工具结果文本。
func formatProductContext(results []entity.SearchResult) string {
	if len(results) == 0 {
		return "No matching products found."
	}

	var b strings.Builder
	b.WriteString("Here are the products I found:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, r.Product.Name, r.Product.DisplayPrice())
		if desc := strings.TrimSpace(r.Product.Description); desc != "" {
			fmt.Fprintf(&b, "   %s\n", desc)
		}
		if r.Product.Category != "" {
			fmt.Fprintf(&b, "   Category: %s\n", r.Product.Category)
		}
	}
	return b.String()
}
