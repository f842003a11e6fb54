package services

const (
	maxRecommendations   = 4
	maxComplementaryPick = 3
	maxSameCategoryPick  = 2
)

// complementaryCategories lists, per cart category, the categories worth suggesting.
var complementaryCategories = map[string][]string{
	"Produce":   {"Dairy", "Pantry"},
	"Dairy":     {"Produce", "Bakery", "Pantry"},
	"Meat":      {"Produce", "Pantry", "Bakery"},
	"Bakery":    {"Dairy", "Pantry"},
	"Pantry":    {"Produce", "Dairy", "Meat"},
	"Frozen":    {"Dairy", "Produce"},
	"Beverages": {"Snacks", "Bakery"},
	"Snacks":    {"Beverages", "Dairy"},
}

// Recommend suggests up to four in-stock products that are not in the cart: up to three
// from complementary categories, then up to two from the cart's own categories, padded with
// on-sale items. Catalog order is kept within each group and no product appears twice.
func Recommend(catalog []Product, cart []CartItem) []Product {
	if len(cart) == 0 {
		return []Product{}
	}

	inCart := make(map[int64]struct{}, len(cart))
	cartCategories := make(map[string]struct{})
	for _, item := range cart {
		inCart[item.ProductID] = struct{}{}
	}
	for _, product := range catalog {
		if _, ok := inCart[product.ID]; ok {
			cartCategories[product.Category] = struct{}{}
		}
	}

	complementary := make(map[string]struct{})
	for category := range cartCategories {
		for _, related := range complementaryCategories[category] {
			complementary[related] = struct{}{}
		}
	}

	picked := make(map[int64]struct{}, maxRecommendations)
	out := make([]Product, 0, maxRecommendations)
	take := func(limit int, match func(Product) bool) {
		added := 0
		for _, product := range catalog {
			if added >= limit || len(out) >= maxRecommendations {
				return
			}
			if !product.InStock || !match(product) {
				continue
			}
			if _, ok := inCart[product.ID]; ok {
				continue
			}
			if _, ok := picked[product.ID]; ok {
				continue
			}
			picked[product.ID] = struct{}{}
			out = append(out, product)
			added++
		}
	}

	take(maxComplementaryPick, func(p Product) bool {
		_, ok := complementary[p.Category]
		return ok
	})
	take(maxSameCategoryPick, func(p Product) bool {
		_, ok := cartCategories[p.Category]
		return ok
	})
	take(maxRecommendations, func(p Product) bool { return p.OnSale })
	return out
}
