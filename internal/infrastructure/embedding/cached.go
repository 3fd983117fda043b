package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"ai-commerce-api/internal/domain/entity"
	"ai-commerce-api/internal/infrastructure/persistence/redis"
	"ai-commerce-api/pkg/logger"
)

// CachedEmbedder 在文本 Embedder 外层加一层 Redis 查询缓存。
// 只缓存单条查询（在线检索路径），批量索引调用直接透传。
type CachedEmbedder struct {
	inner embedding.Embedder
	cache *redis.Cache
	ttl   time.Duration
}

var _ embedding.Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(inner embedding.Embedder, cache *redis.Cache, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedEmbedder{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (e *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if e.cache == nil || len(texts) != 1 {
		return e.inner.EmbedStrings(ctx, texts, opts...)
	}

	key := redis.EmbeddingKey(string(entity.ModalityText), texts[0])
	data, err := e.cache.GetOrLoadSafe(ctx, key, e.ttl, func() (interface{}, error) {
		vecs, err := e.inner.EmbedStrings(ctx, texts, opts...)
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return []float64{}, nil
		}
		return vecs[0], nil
	})
	if err != nil {
		// 缓存层故障不阻断检索，直接透传
		logger.Warn(ctx, "embedding cache unavailable, bypassing", "error", err.Error())
		return e.inner.EmbedStrings(ctx, texts, opts...)
	}

	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return e.inner.EmbedStrings(ctx, texts, opts...)
	}
	return [][]float64{vec}, nil
}
