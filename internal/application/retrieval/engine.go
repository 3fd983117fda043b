package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"ai-commerce-api/internal/domain/entity"
	"ai-commerce-api/internal/domain/repository"
	"ai-commerce-api/pkg/logger"
	"ai-commerce-api/pkg/metrics"
	"ai-commerce-api/pkg/tracer"
)

// Engine 商品检索引擎：向量化查询 -> ANN 召回 -> 阈值/价格过滤 -> 目录回填。
type Engine struct {
	textEmbedder  embedding.Embedder
	imageEmbedder ImageEmbedder
	vector        VectorRepository
	catalog       repository.ProductCatalog

	cfg Config
}

func NewEngine(textEmbedder embedding.Embedder, imageEmbedder ImageEmbedder, vectorRepo VectorRepository, catalog repository.ProductCatalog, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.OverfetchRatio <= 0 {
		cfg.OverfetchRatio = defaultOverfetchRatio
	}
	return &Engine{
		textEmbedder:  textEmbedder,
		imageEmbedder: imageEmbedder,
		vector:        vectorRepo,
		catalog:       catalog,
		cfg:           cfg,
	}
}

// Enabled 判断指定模态的检索能力是否可用。
func (e *Engine) Enabled(modality entity.Modality) bool {
	if e == nil || e.vector == nil || e.catalog == nil {
		return false
	}
	switch modality {
	case entity.ModalityText:
		return e.textEmbedder != nil
	case entity.ModalityImage:
		return e.imageEmbedder != nil
	default:
		return false
	}
}

// Search 执行一次商品检索。召回按相似度降序，过滤后最多返回 TopK 条。
// 空索引返回空结果；Embedder 或向量库故障返回错误，由调用方降级。
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Search")
	defer span.End()

	if !in.Modality.Valid() {
		return nil, fmt.Errorf("invalid modality: %q", in.Modality)
	}
	if !e.Enabled(in.Modality) {
		return nil, ErrVectorDisabled
	}
	if in.TopK <= 0 {
		in.TopK = e.cfg.TopK
	}
	if in.TopK > maxTopK {
		in.TopK = maxTopK
	}

	start := time.Now()
	vec, err := e.embedQuery(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := e.vector.EnsureCollections(ctx); err != nil {
		return nil, err
	}

	// 超额召回，为阈值与价格过滤留出余量
	limit := in.TopK * e.cfg.OverfetchRatio
	hits, err := e.vector.Search(ctx, &VectorSearchParams{
		Modality:    in.Modality,
		QueryVector: vec,
		TopK:        limit,
	})
	if err != nil {
		return nil, err
	}

	threshold := e.cfg.TextThreshold
	if in.Modality == entity.ModalityImage {
		threshold = e.cfg.ImageThreshold
	}

	ids := make([]string, 0, len(hits))
	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		if h == nil {
			continue
		}
		score := float64(h.Score)
		if score < threshold {
			continue
		}
		// 同一商品命中多条向量时保留最高分
		if prev, seen := scores[h.ProductID]; seen {
			if score > prev {
				scores[h.ProductID] = score
			}
			continue
		}
		ids = append(ids, h.ProductID)
		scores[h.ProductID] = score
	}

	products, err := e.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]entity.SearchResult, 0, len(products))
	for _, p := range products {
		// 价格上限为严格小于：恰好等于预算的商品不返回
		if in.MaxPrice != nil && p.Price >= *in.MaxPrice {
			continue
		}
		results = append(results, entity.SearchResult{
			Product:  p,
			Score:    scores[p.ID],
			Modality: in.Modality,
		})
	}

	// 按相似度降序，同分按目录顺序，保证结果确定性
	order := e.catalogOrder(ctx)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return order[results[i].Product.ID] < order[results[j].Product.ID]
	})
	if len(results) > in.TopK {
		results = results[:in.TopK]
	}

	elapsed := time.Since(start)
	metrics.RetrievalResultCount.WithLabelValues(string(in.Modality)).Observe(float64(len(results)))
	logger.Debug(ctx, "product search finished",
		"modality", string(in.Modality),
		"hits", len(hits),
		"results", len(results),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return &SearchOutput{
		Results:   results,
		ElapsedMs: elapsed.Milliseconds(),
	}, nil
}

// catalogOrder 返回商品 ID 到目录加载顺序的映射。
func (e *Engine) catalogOrder(ctx context.Context) map[string]int {
	all, err := e.catalog.All(ctx)
	if err != nil {
		return nil
	}
	order := make(map[string]int, len(all))
	for i := range all {
		order[all[i].ID] = i
	}
	return order
}

func (e *Engine) embedQuery(ctx context.Context, in SearchInput) ([]float32, error) {
	switch in.Modality {
	case entity.ModalityImage:
		img := strings.TrimSpace(in.ImageData)
		if img == "" {
			return nil, ErrEmptyQuery
		}
		vecs, err := e.imageEmbedder.EmbedImages(ctx, []string{img})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, fmt.Errorf("empty embedding result")
		}
		return e.checkDimension(vecs[0], e.cfg.ImageDimension)
	default:
		q := strings.TrimSpace(in.Query)
		if q == "" {
			return nil, ErrEmptyQuery
		}
		v64, err := e.textEmbedder.EmbedStrings(ctx, []string{q})
		if err != nil {
			return nil, err
		}
		if len(v64) == 0 {
			return nil, fmt.Errorf("empty embedding result")
		}
		return e.checkDimension(toFloat32(v64[0]), e.cfg.TextDimension)
	}
}

func (e *Engine) checkDimension(vec []float32, want int) ([]float32, error) {
	if want > 0 && len(vec) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return vec, nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out
}
