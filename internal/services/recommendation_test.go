package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func recommendationCatalog() []Product {
	return []Product{
		{ID: 1, Category: "Produce", InStock: true},
		{ID: 2, Category: "Produce", InStock: true},
		{ID: 3, Category: "Produce", InStock: true},
		{ID: 4, Category: "Produce", InStock: false},
		{ID: 5, Category: "Dairy", InStock: true},
		{ID: 6, Category: "Dairy", InStock: false},
		{ID: 7, Category: "Pantry", InStock: true},
		{ID: 8, Category: "Pantry", InStock: true},
		{ID: 9, Category: "Pantry", InStock: true},
		{ID: 10, Category: "Snacks", InStock: true, OnSale: true},
	}
}

func productIDs(products []Product) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestRecommendEmptyCart(t *testing.T) {
	assert.Empty(t, Recommend(recommendationCatalog(), nil))
}

func TestRecommendComplementaryThenSameCategory(t *testing.T) {
	got := Recommend(recommendationCatalog(), []CartItem{{ProductID: 1, Quantity: 1}})
	// Produce pulls Dairy and Pantry first, then fills with other produce.
	assert.Equal(t, []int64{5, 7, 8, 2}, productIDs(got))
}

func TestRecommendExcludesCartAndOutOfStock(t *testing.T) {
	cart := []CartItem{{ProductID: 1}, {ProductID: 5}, {ProductID: 7}}
	got := Recommend(recommendationCatalog(), cart)

	assert.LessOrEqual(t, len(got), 4)
	seen := map[int64]bool{}
	for _, p := range got {
		assert.True(t, p.InStock)
		assert.NotContains(t, []int64{1, 5, 7}, p.ID)
		assert.False(t, seen[p.ID], "duplicate %d", p.ID)
		seen[p.ID] = true
	}
}

func TestRecommendPadsWithOnSaleItems(t *testing.T) {
	catalog := []Product{
		{ID: 1, Category: "Frozen", InStock: true},
		{ID: 2, Category: "Beverages", InStock: true, OnSale: true},
		{ID: 3, Category: "Snacks", InStock: true, OnSale: false},
	}
	got := Recommend(catalog, []CartItem{{ProductID: 1}})
	assert.Equal(t, []int64{2}, productIDs(got))
}
