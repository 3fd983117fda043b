// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "ai-commerce-api/internal/domain/entity"
	"ai-commerce-api/pkg/metrics"
)

// Repository 商品向量仓储，按模态维护 text/images 两个集合。
type Repository struct {
	client *Client

	textDimension  int
	imageDimension int
}

// NewRepository 创建商品向量仓储
func NewRepository(client *Client, textDim, imageDim int) *Repository {
	if textDim <= 0 {
		textDim = DefaultTextDimension
	}
	if imageDim <= 0 {
		imageDim = DefaultImageDimension
	}
	return &Repository{
		client:         client,
		textDimension:  textDim,
		imageDimension: imageDim,
	}
}

// SearchResult 检索结果
type SearchResult struct {
	ID        string
	ProductID string
	Score     float32
}

func (r *Repository) dimension(m domain.Modality) int {
	if m == domain.ModalityImage {
		return r.imageDimension
	}
	return r.textDimension
}

// CreateCollection 创建集合
func (r *Repository) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", schema.CollectionName)))
	defer span.End()

	collName := r.client.CollectionName(schema.CollectionName)
	schema.CollectionName = collName

	err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context, collection string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	collName := r.client.CollectionName(collection)

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// EnsureCollections 确保两个模态的集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollections(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	for _, m := range []domain.Modality{domain.ModalityText, domain.ModalityImage} {
		name := CollectionForModality(m)
		exists, err := r.client.HasCollection(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			if err := r.CreateCollection(ctx, ProductVectorSchema(name, r.dimension(m))); err != nil {
				return err
			}
			// 新建集合时创建索引；若失败，允许后续由运维介入。
			_ = r.CreateIndex(ctx, name)
		}
		// 尝试确保集合已加载（若已加载，Milvus 会返回成功）
		if err := r.client.LoadCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// SearchProducts 按模态做 ANN 检索，返回按余弦相似度降序的命中。
// 集合不存在时返回空结果，避免空索引导致整轮失败。
func (r *Repository) SearchProducts(ctx context.Context, modality domain.Modality, queryVector []float32, topK int) ([]*SearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	collection := CollectionForModality(modality)
	ctx, span := tracer.Start(ctx, "milvus.SearchProducts",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	start := time.Now()
	collName := r.client.CollectionName(collection)

	if has, err := r.client.milvus.HasCollection(ctx, collName); err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(collection, "error").Inc()
		return nil, fmt.Errorf("failed to check collection: %w", err)
	} else if !has {
		return []*SearchResult{}, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		[]string{"id", "product_id"},
		[]entity.Vector{entity.FloatVector(queryVector)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(collection, "error").Inc()
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var searchResults []*SearchResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sr := &SearchResult{
				Score: result.Scores[i],
			}
			if idCol, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				sr.ID = idCol.Data()[i]
			}
			if pidCol, ok := result.Fields.GetColumn("product_id").(*entity.ColumnVarChar); ok {
				sr.ProductID = pidCol.Data()[i]
			}
			searchResults = append(searchResults, sr)
		}
	}

	metrics.MilvusSearchTotal.WithLabelValues(collection, "ok").Inc()
	metrics.MilvusSearchDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("result_count", len(searchResults)))
	return searchResults, nil
}

// InsertProductVectors 向指定模态的集合写入商品向量。
func (r *Repository) InsertProductVectors(ctx context.Context, modality domain.Modality, vectors []*ProductVector) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	collection := CollectionForModality(modality)
	ctx, span := tracer.Start(ctx, "milvus.InsertProductVectors",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.Int("count", len(vectors)),
		))
	defer span.End()

	if len(vectors) == 0 {
		return nil
	}

	collName := r.client.CollectionName(collection)

	ids := make([]string, len(vectors))
	vecs := make([][]float32, len(vectors))
	productIDs := make([]string, len(vectors))
	for i, v := range vectors {
		ids[i] = v.ID
		vecs[i] = v.Vector
		productIDs[i] = v.ProductID
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", r.dimension(modality), vecs)
	productCol := entity.NewColumnVarChar("product_id", productIDs)

	_, err := r.client.milvus.Insert(ctx, collName, "", idCol, vectorCol, productCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert product vectors: %w", err)
	}

	return nil
}

// DeleteByProduct 删除某商品在指定模态集合中的全部向量。
// 集合不存在时视为无事可做。
func (r *Repository) DeleteByProduct(ctx context.Context, modality domain.Modality, productID string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	collection := CollectionForModality(modality)
	ctx, span := tracer.Start(ctx, "milvus.DeleteByProduct",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("product_id", productID),
		))
	defer span.End()

	collName := r.client.CollectionName(collection)
	if has, err := r.client.milvus.HasCollection(ctx, collName); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	} else if !has {
		return nil
	}

	filter := fmt.Sprintf(`product_id == "%s"`, productID)
	if err := r.client.milvus.Delete(ctx, collName, "", filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete product vectors: %w", err)
	}
	return nil
}
