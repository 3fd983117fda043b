// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
)

// Product 商品实体，来源于目录文件，检索结果以此为载体
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       float64           `json:"price"`
	ImageURL    string            `json:"image_url,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// EmbeddingText 返回用于文本向量化的商品描述文本
func (p *Product) EmbeddingText() string {
	parts := []string{p.Name, p.Description}
	if len(p.Tags) > 0 {
		parts = append(parts, strings.Join(p.Tags, " "))
	}
	if p.Category != "" {
		parts = append(parts, "Category: "+p.Category)
	}
	return strings.Join(parts, ". ")
}

// DisplayPrice 返回带美元符号的展示价格
func (p *Product) DisplayPrice() string {
	return fmt.Sprintf("$%.2f", p.Price)
}
