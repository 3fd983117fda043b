// Package catalog 提供基于 JSON 文件的商品目录实现
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"ai-commerce-api/internal/domain/entity"
	"ai-commerce-api/internal/domain/repository"
)

// Store 内存商品目录，启动时从 JSON 文件加载。
type Store struct {
	mu       sync.RWMutex
	path     string
	products []entity.Product
	byID     map[string]int
}

var _ repository.ProductCatalog = (*Store)(nil)

// NewStore 从 JSON 文件加载商品目录。
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload 重新加载目录文件。
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}

	var products []entity.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("failed to parse catalog file %s: %w", s.path, err)
	}

	byID := make(map[string]int, len(products))
	for i := range products {
		id := strings.TrimSpace(products[i].ID)
		if id == "" {
			return fmt.Errorf("catalog file %s: product at index %d has no id", s.path, i)
		}
		if _, dup := byID[id]; dup {
			return fmt.Errorf("catalog file %s: duplicate product id %s", s.path, id)
		}
		byID[id] = i
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.mu.Unlock()
	return nil
}

// Get 按商品 ID 查询，未命中返回 (nil, nil)。
func (s *Store) Get(_ context.Context, id string) (*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	p := s.products[idx]
	return &p, nil
}

// GetMany 按 ID 批量查询，保持入参顺序，未命中的 ID 被跳过。
func (s *Store) GetMany(_ context.Context, ids []string) ([]entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Product, 0, len(ids))
	for _, id := range ids {
		if idx, ok := s.byID[id]; ok {
			out = append(out, s.products[idx])
		}
	}
	return out, nil
}

// All 返回目录中的全部商品。
func (s *Store) All(_ context.Context) ([]entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Count 返回目录商品数量。
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}
