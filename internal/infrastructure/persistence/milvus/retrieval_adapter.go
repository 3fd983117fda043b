package milvus

import (
	"context"

	"ai-commerce-api/internal/application/retrieval"
	domain "ai-commerce-api/internal/domain/entity"
)

// RetrievalVectorRepository 把 Milvus 仓储适配为应用层的向量 port。
type RetrievalVectorRepository struct {
	repo *Repository
}

func NewRetrievalVectorRepository(repo *Repository) *RetrievalVectorRepository {
	return &RetrievalVectorRepository{repo: repo}
}

var _ retrieval.VectorRepository = (*RetrievalVectorRepository)(nil)

func (r *RetrievalVectorRepository) EnsureCollections(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.EnsureCollections(ctx)
}

func (r *RetrievalVectorRepository) Search(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	if r == nil || r.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}
	if params == nil {
		return nil, nil
	}

	out, err := r.repo.SearchProducts(ctx, params.Modality, params.QueryVector, params.TopK)
	if err != nil {
		return nil, err
	}

	results := make([]*retrieval.VectorSearchResult, 0, len(out))
	for i := range out {
		v := out[i]
		if v == nil {
			continue
		}
		results = append(results, &retrieval.VectorSearchResult{
			ProductID: v.ProductID,
			Score:     v.Score,
		})
	}
	return results, nil
}

func (r *RetrievalVectorRepository) Insert(ctx context.Context, modality domain.Modality, records []*retrieval.VectorProductRecord) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	if len(records) == 0 {
		return nil
	}

	out := make([]*ProductVector, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec == nil {
			continue
		}
		out = append(out, &ProductVector{
			ID:        rec.ID,
			ProductID: rec.ProductID,
			Vector:    rec.Vector,
		})
	}
	return r.repo.InsertProductVectors(ctx, modality, out)
}

func (r *RetrievalVectorRepository) DeleteByProduct(ctx context.Context, modality domain.Modality, productID string) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.DeleteByProduct(ctx, modality, productID)
}
