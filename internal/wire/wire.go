//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"ai-commerce-api/internal/application/assistant"
	"ai-commerce-api/internal/application/retrieval"
	"ai-commerce-api/internal/config"
	"ai-commerce-api/internal/infrastructure/llm"
	"ai-commerce-api/internal/infrastructure/persistence/redis"
	"ai-commerce-api/internal/interfaces/http/handler"
	"ai-commerce-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RedisSet,
		CatalogSet,
		EmbeddingSet,
		MilvusAppSet,
		RetrievalSet,
		AssistantSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化索引构建依赖（Milvus 不可达时直接失败）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, func(), error) {
	wire.Build(
		RedisSet,
		CatalogSet,
		EmbeddingSet,
		MilvusRequiredSet,
		RetrievalSet,
		wire.Struct(new(Bootstrap), "*"),
	)
	return nil, nil, nil
}

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
)

// CatalogSet 商品目录提供者集合
var CatalogSet = wire.NewSet(
	ProvideProductCatalog,
)

// MilvusAppSet API 网关可选 Milvus（不可达时降级为纯对话）
var MilvusAppSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideMilvusRepository,
	ProvideRetrievalVectorRepository,
)

// MilvusRequiredSet bootstrap 必需 Milvus
var MilvusRequiredSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideMilvusRepository,
	ProvideRetrievalVectorRepository,
)

// EmbeddingSet 可选 Embedder（不可用时禁用对应模态的检索/索引）
var EmbeddingSet = wire.NewSet(
	ProvideTextEmbedderOptional,
	ProvideImageEmbedder,
)

// RetrievalSet 检索引擎与索引构建器
var RetrievalSet = wire.NewSet(
	ProvideRetrievalConfig,
	retrieval.NewEngine,
	retrieval.NewIndexer,
)

// AssistantSet 对话编排提供者集合
var AssistantSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(assistant.ChatModelProvider), new(*llm.EinoFactory)),
	assistant.NewRouter,
	ProvideAssistantConfig,
	wire.Bind(new(assistant.SearchEngine), new(*retrieval.Engine)),
	assistant.NewOrchestrator,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewChatHandler,
	handler.NewHealthHandler,
	ProvideRateLimitMiddleware,
	router.New,
)
