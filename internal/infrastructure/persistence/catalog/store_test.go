package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}
	return path
}

const sampleCatalog = `[
  {"id": "p1", "name": "Trail Runner", "description": "Lightweight trail shoe", "category": "footwear", "price": 89.99, "image_url": "https://example.com/p1.jpg", "tags": ["running", "trail"]},
  {"id": "p2", "name": "Road Glide", "category": "footwear", "price": 119.0},
  {"id": "p3", "name": "Canvas Sneakers", "category": "footwear", "price": 45.5}
]`

func TestStore_Load(t *testing.T) {
	store, err := NewStore(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	p, err := store.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p == nil || p.Name != "Trail Runner" {
		t.Errorf("got %+v, want Trail Runner", p)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "running" {
		t.Errorf("tags = %v, want [running trail]", p.Tags)
	}
}

func TestStore_GetMiss(t *testing.T) {
	store, err := NewStore(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	p, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p != nil {
		t.Errorf("got %+v, want nil on miss", p)
	}
}

func TestStore_GetMany(t *testing.T) {
	store, err := NewStore(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	// 保持入参顺序，未命中的 ID 被跳过
	products, err := store.GetMany(context.Background(), []string{"p3", "missing", "p1"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].ID != "p3" || products[1].ID != "p1" {
		t.Errorf("order not preserved: %s, %s", products[0].ID, products[1].ID)
	}
}

func TestStore_All(t *testing.T) {
	store, err := NewStore(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	products, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("got %d products, want 3", len(products))
	}
}

func TestStore_DuplicateID(t *testing.T) {
	_, err := NewStore(writeCatalog(t, `[
  {"id": "p1", "name": "A", "price": 1},
  {"id": "p1", "name": "B", "price": 2}
]`))
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	if !strings.Contains(err.Error(), "duplicate product id") {
		t.Errorf("err = %v", err)
	}
}

func TestStore_MissingID(t *testing.T) {
	_, err := NewStore(writeCatalog(t, `[{"name": "No ID", "price": 1}]`))
	if err == nil {
		t.Fatal("expected missing id error")
	}
}

func TestStore_FileNotFound(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStore_Reload(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`[{"id": "p9", "name": "New", "price": 9.9}]`), 0o644); err != nil {
		t.Fatalf("failed to rewrite catalog: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	n, _ := store.Count(context.Background())
	if n != 1 {
		t.Errorf("count after reload = %d, want 1", n)
	}
}
