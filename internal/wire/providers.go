// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/gin-gonic/gin"

	"ai-commerce-api/internal/application/assistant"
	"ai-commerce-api/internal/application/retrieval"
	"ai-commerce-api/internal/config"
	"ai-commerce-api/internal/domain/repository"
	infraembedding "ai-commerce-api/internal/infrastructure/embedding"
	"ai-commerce-api/internal/infrastructure/persistence/catalog"
	"ai-commerce-api/internal/infrastructure/persistence/milvus"
	"ai-commerce-api/internal/infrastructure/persistence/redis"
	"ai-commerce-api/internal/interfaces/http/middleware"
	"ai-commerce-api/pkg/logger"
)

// Bootstrap 索引构建依赖容器（bootstrap 命令使用，Milvus 必需）
type Bootstrap struct {
	Indexer *retrieval.Indexer
	Catalog repository.ProductCatalog
	Cache   *redis.Cache
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideProductCatalog 提供商品目录（启动时整体加载，失败即退出）
func ProvideProductCatalog(cfg *config.Config) (repository.ProductCatalog, error) {
	return catalog.NewStore(cfg.Catalog.Path)
}

// ProvideMilvusClient 提供 Milvus 客户端（必需）
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusClientOptional 提供 Milvus 客户端，不可达时返回 nil 并降级
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, product search disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusRepository 提供向量仓储，客户端缺失时返回 nil
func ProvideMilvusRepository(client *milvus.Client, cfg *config.Config) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client, cfg.Embedding.Text.Dimension, cfg.Embedding.Image.Dimension)
}

// ProvideRetrievalVectorRepository 提供检索端口适配器
func ProvideRetrievalVectorRepository(repo *milvus.Repository) retrieval.VectorRepository {
	if repo == nil {
		return nil
	}
	return milvus.NewRetrievalVectorRepository(repo)
}

// ProvideTextEmbedderOptional 提供文本 Embedder，按配置包一层查询缓存
func ProvideTextEmbedderOptional(ctx context.Context, cfg *config.Config, cache *redis.Cache) einoembedding.Embedder {
	embedder, err := infraembedding.NewEinoTextEmbedder(ctx, &cfg.Embedding.Text)
	if err != nil {
		logger.Warn(ctx, "text embedder not available, text search disabled", "error", err.Error())
		return nil
	}
	if cfg.Features.QueryCache.Enabled {
		return infraembedding.NewCachedEmbedder(embedder, cache, cfg.Features.QueryCache.TTL)
	}
	return embedder
}

// ProvideImageEmbedder 提供图像 Embedder，未配置 sidecar 时禁用图搜
func ProvideImageEmbedder(cfg *config.Config) retrieval.ImageEmbedder {
	if cfg.Embedding.Image.Endpoint == "" {
		return nil
	}
	return infraembedding.NewClipClient(&cfg.Embedding.Image)
}

// ProvideRetrievalConfig 提供检索引擎配置
func ProvideRetrievalConfig(cfg *config.Config) retrieval.Config {
	return retrieval.Config{
		TopK:           cfg.Retrieval.TopK,
		OverfetchRatio: cfg.Retrieval.OverfetchRatio,
		TextThreshold:  cfg.Retrieval.TextThreshold,
		ImageThreshold: cfg.Retrieval.ImageThreshold,
		TextDimension:  cfg.Embedding.Text.Dimension,
		ImageDimension: cfg.Embedding.Image.Dimension,
	}
}

// ProvideAssistantConfig 提供编排器配置
func ProvideAssistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		Provider:           cfg.LLM.DefaultProvider,
		PriceFilterEnabled: cfg.Features.PriceFilter.Enabled,
	}
}

// ProvideRateLimitMiddleware 提供限流中间件
func ProvideRateLimitMiddleware(cfg *config.Config, limiter *redis.RateLimiter) gin.HandlerFunc {
	return middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
		Enabled:           cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: cfg.Security.RateLimit.RequestsPerSecond,
		Burst:             cfg.Security.RateLimit.Burst,
	}, limiter)
}
