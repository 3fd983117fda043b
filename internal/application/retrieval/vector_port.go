package retrieval

import (
	"context"

	"ai-commerce-api/internal/domain/entity"
)

// VectorRepository 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorRepository interface {
	EnsureCollections(ctx context.Context) error
	// Search 按模态做 ANN 检索，返回按相似度降序的命中。
	// 集合为空或尚未建立时返回空结果而非错误。
	Search(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)
	// Insert 向指定模态的集合写入商品向量。
	Insert(ctx context.Context, modality entity.Modality, records []*VectorProductRecord) error
	// DeleteByProduct 删除某商品在指定模态集合中的全部向量。
	DeleteByProduct(ctx context.Context, modality entity.Modality, productID string) error
}

// VectorSearchParams 向量检索参数。
type VectorSearchParams struct {
	Modality    entity.Modality
	QueryVector []float32
	TopK        int
}

// VectorSearchResult 向量检索命中，Score 为余弦相似度（越大越相近）。
type VectorSearchResult struct {
	ProductID string
	Score     float32
}

// VectorProductRecord 写入向量集合的一条商品记录。
type VectorProductRecord struct {
	ID        string
	ProductID string
	Vector    []float32
}

// ImageEmbedder 图像向量化 port，由 CLIP sidecar 客户端实现。
// 输入为 base64 data URL 或可公开访问的图片 URL。
type ImageEmbedder interface {
	EmbedImages(ctx context.Context, images []string) ([][]float32, error)
}
