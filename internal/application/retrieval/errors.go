package retrieval

import "errors"

var (
	// ErrVectorDisabled 表示向量检索能力未配置（Milvus 或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector retrieval is disabled")
	// ErrDimensionMismatch 表示向量维度与集合配置不一致。
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmptyQuery 表示检索输入为空。
	ErrEmptyQuery = errors.New("query is empty")
)
