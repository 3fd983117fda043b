// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ai-commerce-api/internal/domain/entity"
)

// ProductCatalog 商品目录访问接口
type ProductCatalog interface {
	// Get 按商品 ID 查询，未命中返回 (nil, nil)
	Get(ctx context.Context, id string) (*entity.Product, error)
	// GetMany 按 ID 批量查询，保持入参顺序，未命中的 ID 被跳过
	GetMany(ctx context.Context, ids []string) ([]entity.Product, error)
	// All 返回目录中的全部商品
	All(ctx context.Context) ([]entity.Product, error)
	// Count 返回目录商品数量
	Count(ctx context.Context) (int, error)
}
