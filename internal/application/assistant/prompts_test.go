package assistant

import (
	"strings"
	"testing"

	"ai-commerce-api/internal/domain/entity"
)

func TestFormatProductContext_Empty(t *testing.T) {
	got := formatProductContext(nil)
	if got != "No matching products found." {
		t.Errorf("got %q", got)
	}
}

func TestFormatProductContext_Populated(t *testing.T) {
	results := []entity.SearchResult{
		{Product: entity.Product{Name: "Trail Runner", Price: 89.99, Description: "Lightweight trail shoe", Category: "footwear"}},
		{Product: entity.Product{Name: "Road Glide", Price: 119}},
	}

	got := formatProductContext(results)
	if !strings.HasPrefix(got, "Here are the products I found:\n\n") {
		t.Errorf("missing header: %q", got)
	}
	for _, want := range []string{
		"1. **Trail Runner** - $89.99",
		"   Lightweight trail shoe",
		"   Category: footwear",
		"2. **Road Glide** - $119.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	// 无描述与类目的商品不输出空行
	if strings.Contains(got, "Category: \n") {
		t.Errorf("empty category rendered:\n%s", got)
	}
}
