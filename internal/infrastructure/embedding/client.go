// Package embedding 提供 Embedding 服务客户端
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-commerce-api/internal/config"
)

// ClipClient CLIP sidecar 客户端，为图片生成向量。
// 输入是 base64 data URL 或可公开访问的图片 URL。
type ClipClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type clipEmbedRequest struct {
	Images []string `json:"images"`
	Model  string   `json:"model"`
}

type clipEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewClipClient(cfg *config.ImageEmbeddingConfig) *ClipClient {
	model := cfg.Model
	if model == "" {
		model = "clip-vit-base-patch32"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClipClient{
		endpoint: cfg.Endpoint,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// EmbedImages 为一组图片生成向量，返回顺序与输入一致。
func (c *ClipClient) EmbedImages(ctx context.Context, images []string) ([][]float32, error) {
	if len(images) == 0 {
		return [][]float32{}, nil
	}

	reqBody, err := json.Marshal(&clipEmbedRequest{
		Images: images,
		Model:  c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("image embedding endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid image embedding endpoint: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/embed"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image embedding request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("image embedding request failed: status=%d", httpResp.StatusCode)
	}

	var resp clipEmbedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(resp.Embeddings) != len(images) {
		return nil, fmt.Errorf("image embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(images))
	}
	return resp.Embeddings, nil
}
