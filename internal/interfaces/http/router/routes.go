// Package router 提供 HTTP 路由配置
package router

import (
	"ai-commerce-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	chatHandler *handler.ChatHandler,
) {
	// 购物对话
	chat := v1.Group("/chat")
	{
		chat.POST("", chatHandler.Chat)
		chat.POST("/stream", chatHandler.ChatStream) // SSE
	}
}
