package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-commerce-api/internal/config"
)

func TestClipClient_EmbedImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s, want /embed", r.URL.Path)
		}
		var req clipEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Images) != 2 {
			t.Errorf("images = %d, want 2", len(req.Images))
		}
		if req.Model != "clip-vit-base-patch32" {
			t.Errorf("model = %s", req.Model)
		}
		json.NewEncoder(w).Encode(clipEmbedResponse{
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer srv.Close()

	client := NewClipClient(&config.ImageEmbeddingConfig{
		Endpoint: srv.URL,
		Timeout:  5 * time.Second,
	})

	vecs, err := client.EmbedImages(context.Background(), []string{
		"data:image/png;base64,aaaa",
		"data:image/png;base64,bbbb",
	})
	if err != nil {
		t.Fatalf("EmbedImages failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("vectors = %d, want 2", len(vecs))
	}
	if vecs[1][0] != 0.3 {
		t.Errorf("vecs[1][0] = %v, want 0.3", vecs[1][0])
	}
}

func TestClipClient_EmbedImages_Empty(t *testing.T) {
	client := NewClipClient(&config.ImageEmbeddingConfig{Endpoint: "http://unused"})

	vecs, err := client.EmbedImages(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedImages failed: %v", err)
	}
	if len(vecs) != 0 {
		t.Errorf("vectors = %d, want 0", len(vecs))
	}
}

func TestClipClient_EmbedImages_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClipClient(&config.ImageEmbeddingConfig{Endpoint: srv.URL})

	_, err := client.EmbedImages(context.Background(), []string{"data:image/png;base64,aaaa"})
	if err == nil {
		t.Fatal("expected error on server failure")
	}
	if !strings.Contains(err.Error(), "status=500") {
		t.Errorf("err = %v", err)
	}
}

func TestClipClient_EmbedImages_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(clipEmbedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	client := NewClipClient(&config.ImageEmbeddingConfig{Endpoint: srv.URL})

	_, err := client.EmbedImages(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected count mismatch error")
	}
	if !strings.Contains(err.Error(), "count mismatch") {
		t.Errorf("err = %v", err)
	}
}

func TestClipClient_ExplicitPathPreserved(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(clipEmbedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	client := NewClipClient(&config.ImageEmbeddingConfig{Endpoint: srv.URL + "/v1/embeddings"})

	if _, err := client.EmbedImages(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("EmbedImages failed: %v", err)
	}
	if gotPath != "/v1/embeddings" {
		t.Errorf("path = %s, want /v1/embeddings", gotPath)
	}
}
