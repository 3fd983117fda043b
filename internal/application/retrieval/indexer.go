package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"ai-commerce-api/internal/domain/entity"
	"ai-commerce-api/internal/domain/repository"
	"ai-commerce-api/pkg/logger"
)

// Indexer 将商品目录写入向量索引，文本与图像两个模态分别建库。
type Indexer struct {
	textEmbedder  embedding.Embedder
	imageEmbedder ImageEmbedder
	vector        VectorRepository
	catalog       repository.ProductCatalog

	embeddingBatchSize int
	textDimension      int
	imageDimension     int
}

func NewIndexer(textEmbedder embedding.Embedder, imageEmbedder ImageEmbedder, vectorRepo VectorRepository, catalog repository.ProductCatalog, cfg Config) *Indexer {
	bs := defaultEmbeddingBatch
	return &Indexer{
		textEmbedder:       textEmbedder,
		imageEmbedder:      imageEmbedder,
		vector:             vectorRepo,
		catalog:            catalog,
		embeddingBatchSize: bs,
		textDimension:      cfg.TextDimension,
		imageDimension:     cfg.ImageDimension,
	}
}

// IndexStats 一次目录索引的统计。
type IndexStats struct {
	Products     int
	TextVectors  int
	ImageVectors int
}

// IndexCatalog 全量索引商品目录。文本向量对全部商品建立，
// 图像向量仅对带 ImageURL 的商品建立。重复执行会先删除旧向量。
func (i *Indexer) IndexCatalog(ctx context.Context) (*IndexStats, error) {
	if i == nil || i.vector == nil || i.catalog == nil || i.textEmbedder == nil {
		return nil, ErrVectorDisabled
	}
	if err := i.vector.EnsureCollections(ctx); err != nil {
		return nil, err
	}

	products, err := i.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	stats := &IndexStats{Products: len(products)}
	if len(products) == 0 {
		return stats, nil
	}

	if err := i.indexText(ctx, products); err != nil {
		return nil, err
	}
	stats.TextVectors = len(products)

	n, err := i.indexImages(ctx, products)
	if err != nil {
		return nil, err
	}
	stats.ImageVectors = n

	logger.Info(ctx, "catalog indexed",
		"products", stats.Products,
		"text_vectors", stats.TextVectors,
		"image_vectors", stats.ImageVectors,
	)
	return stats, nil
}

func (i *Indexer) indexText(ctx context.Context, products []entity.Product) error {
	texts := make([]string, 0, len(products))
	for idx := range products {
		texts = append(texts, products[idx].EmbeddingText())
	}

	vectors, err := i.embedTextBatch(ctx, texts)
	if err != nil {
		return err
	}

	records := make([]*VectorProductRecord, 0, len(products))
	for idx := range products {
		if i.textDimension > 0 && len(vectors[idx]) != i.textDimension {
			return fmt.Errorf("%w: product %s got %d, want %d", ErrDimensionMismatch, products[idx].ID, len(vectors[idx]), i.textDimension)
		}
		if err := i.vector.DeleteByProduct(ctx, entity.ModalityText, products[idx].ID); err != nil {
			return err
		}
		records = append(records, &VectorProductRecord{
			ID:        uuid.NewString(),
			ProductID: products[idx].ID,
			Vector:    vectors[idx],
		})
	}
	return i.vector.Insert(ctx, entity.ModalityText, records)
}

func (i *Indexer) indexImages(ctx context.Context, products []entity.Product) (int, error) {
	if i.imageEmbedder == nil {
		return 0, nil
	}

	withImage := make([]entity.Product, 0, len(products))
	urls := make([]string, 0, len(products))
	for idx := range products {
		u := strings.TrimSpace(products[idx].ImageURL)
		if u == "" {
			continue
		}
		withImage = append(withImage, products[idx])
		urls = append(urls, u)
	}
	if len(withImage) == 0 {
		return 0, nil
	}

	vectors, err := i.imageEmbedder.EmbedImages(ctx, urls)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(withImage) {
		return 0, fmt.Errorf("image embedding count mismatch: got %d, want %d", len(vectors), len(withImage))
	}

	records := make([]*VectorProductRecord, 0, len(withImage))
	for idx := range withImage {
		if i.imageDimension > 0 && len(vectors[idx]) != i.imageDimension {
			return 0, fmt.Errorf("%w: product %s got %d, want %d", ErrDimensionMismatch, withImage[idx].ID, len(vectors[idx]), i.imageDimension)
		}
		if err := i.vector.DeleteByProduct(ctx, entity.ModalityImage, withImage[idx].ID); err != nil {
			return 0, err
		}
		records = append(records, &VectorProductRecord{
			ID:        uuid.NewString(),
			ProductID: withImage[idx].ID,
			Vector:    vectors[idx],
		})
	}
	if err := i.vector.Insert(ctx, entity.ModalityImage, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (i *Indexer) embedTextBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		v64, err := i.textEmbedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			out = append(out, toFloat32(vec))
		}
	}
	return out, nil
}
