// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	domain "ai-commerce-api/internal/domain/entity"
)

const (
	// CollectionProductsText 商品文本向量集合
	CollectionProductsText = "text"
	// CollectionProductsImage 商品图像向量集合
	CollectionProductsImage = "images"

	// DefaultTextDimension 文本向量维度 (text-embedding-3-small)
	DefaultTextDimension = 1536
	// DefaultImageDimension 图像向量维度 (clip-vit-base-patch32)
	DefaultImageDimension = 512
)

// CollectionForModality 返回模态对应的集合名（不含前缀）。
func CollectionForModality(m domain.Modality) string {
	if m == domain.ModalityImage {
		return CollectionProductsImage
	}
	return CollectionProductsText
}

// DimensionForModality 返回模态对应的默认向量维度。
func DimensionForModality(m domain.Modality) int {
	if m == domain.ModalityImage {
		return DefaultImageDimension
	}
	return DefaultTextDimension
}

// ProductVectorSchema 商品向量 Collection Schema，两个模态结构一致，
// 仅维度不同。
func ProductVectorSchema(collectionName string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: collectionName,
		Description:    "Product vectors for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", dim),
				},
			},
			{
				Name:     "product_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
		},
	}
}

// ProductVector 商品向量数据结构
type ProductVector struct {
	ID        string    `json:"id"`
	Vector    []float32 `json:"vector"`
	ProductID string    `json:"product_id"`
}
