package retrieval

import "ai-commerce-api/internal/domain/entity"

// SearchInput 商品检索输入。
type SearchInput struct {
	Modality entity.Modality

	// Query 文本检索的查询语句。
	Query string
	// ImageData 图像检索的 base64 data URL。
	ImageData string

	TopK int

	// MaxPrice 非 nil 时对命中结果做价格上限过滤。
	MaxPrice *float64
}

// SearchOutput 商品检索输出，Results 按相似度降序排列。
type SearchOutput struct {
	Results []entity.SearchResult

	// ElapsedMs 向量检索耗时（含向量化）。
	ElapsedMs int64
}

// Config 检索引擎配置。
type Config struct {
	TopK           int
	OverfetchRatio int
	TextThreshold  float64
	ImageThreshold float64
	TextDimension  int
	ImageDimension int
}

const (
	defaultTopK           = 5
	maxTopK               = 20
	defaultOverfetchRatio = 3
	defaultEmbeddingBatch = 64
)
