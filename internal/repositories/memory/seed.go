// Package memory holds the in-process repositories. Each repository owns its data behind a
// mutex and applies read-modify-write operations atomically per shopper.
package memory

import (
	"embed"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

//go:embed seed/*.yaml
var seedFS embed.FS

const defaultProductImage = "https://images.unsplash.com/photo-1546583087-d8f2000a5d92?w=400&h=300&fit=crop"

type storeSeed struct {
	ID             int64   `yaml:"id"`
	Name           string  `yaml:"name"`
	Address        string  `yaml:"address"`
	Distance       float64 `yaml:"distance"`
	Hours          string  `yaml:"hours"`
	IsOpen         bool    `yaml:"is_open"`
	InventoryCount int     `yaml:"inventory_count"`
}

type productSeed struct {
	ID       int64   `yaml:"id"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Price    float64 `yaml:"price"`
	Unit     string  `yaml:"unit"`
	Image    string  `yaml:"image"`
	Quantity int     `yaml:"quantity"`
	Discount float64 `yaml:"discount"`
}

type categorySeed struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	ImageURL string `yaml:"image_url"`
}

type promoSeed struct {
	ID          int64  `yaml:"id"`
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	ImageURL    string `yaml:"image_url"`
	RedirectURL string `yaml:"redirect_url"`
	Active      bool   `yaml:"active"`
}

func readSeed(name string, out any) error {
	data, err := seedFS.ReadFile("seed/" + name)
	if err != nil {
		return fmt.Errorf("memory seed %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("memory seed %s: %w", name, err)
	}
	return nil
}

// SeedStores returns the store directory bundled with the service.
func SeedStores() ([]domain.Store, error) {
	var seeds []storeSeed
	if err := readSeed("stores.yaml", &seeds); err != nil {
		return nil, err
	}
	stores := make([]domain.Store, len(seeds))
	for i, s := range seeds {
		stores[i] = domain.Store{
			ID:             s.ID,
			Name:           s.Name,
			Address:        s.Address,
			Distance:       s.Distance,
			Hours:          s.Hours,
			IsOpen:         s.IsOpen,
			InventoryCount: s.InventoryCount,
		}
	}
	return stores, nil
}

// SeedCatalog returns the bundled products, categories and promo banners.
func SeedCatalog() ([]domain.Product, []domain.Category, []domain.PromoBanner, error) {
	var (
		productSeeds  []productSeed
		categorySeeds []categorySeed
		promoSeeds    []promoSeed
	)
	if err := readSeed("products.yaml", &productSeeds); err != nil {
		return nil, nil, nil, err
	}
	if err := readSeed("categories.yaml", &categorySeeds); err != nil {
		return nil, nil, nil, err
	}
	if err := readSeed("promos.yaml", &promoSeeds); err != nil {
		return nil, nil, nil, err
	}

	categoryIDs := make(map[string]int64, len(categorySeeds))
	categories := make([]domain.Category, len(categorySeeds))
	for i, c := range categorySeeds {
		categories[i] = domain.Category{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL}
		categoryIDs[c.Name] = c.ID
	}

	products := make([]domain.Product, len(productSeeds))
	for i, p := range productSeeds {
		input := domain.ProductInput{
			Name:     p.Name,
			Price:    int64(math.Round(p.Price * 100)),
			Unit:     p.Unit,
			Image:    p.Image,
			Quantity: p.Quantity,
			Discount: int64(math.Round(p.Discount * 100)),
		}
		if id, ok := categoryIDs[p.Category]; ok {
			input.CategoryID = &id
		}
		products[i] = productFromInput(p.ID, input, p.Category)
	}

	promos := make([]domain.PromoBanner, len(promoSeeds))
	for i, p := range promoSeeds {
		promos[i] = domain.PromoBanner{
			ID:       p.ID,
			Title:    p.Title,
			Subtitle: p.Subtitle,
			ImageURL: p.ImageURL,
			CTAText:  "Shop Now",
			CTALink:  p.RedirectURL,
			IsActive: p.Active,
			Priority: i + 1,
		}
		if promos[i].CTALink == "" {
			promos[i].CTALink = "/search"
		}
		promos[i].Description = p.Title
		if p.Subtitle != "" {
			promos[i].Description = p.Title + " - " + p.Subtitle
		}
	}
	return products, categories, promos, nil
}

// productFromInput derives the read-side product fields from writable ones.
func productFromInput(id int64, input domain.ProductInput, category string) domain.Product {
	product := domain.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Category:    category,
		CategoryID:  input.CategoryID,
		Price:       input.Price,
		Unit:        input.Unit,
		Image:       input.Image,
		Quantity:    input.Quantity,
		Discount:    input.Discount,
		Featured:    input.Featured,
		InStock:     input.Quantity > 0,
	}
	if product.Category == "" {
		product.Category = "General"
	}
	if product.Unit == "" {
		product.Unit = "each"
	}
	if product.Image == "" {
		product.Image = defaultProductImage
	}
	if input.Discount > 0 {
		product.OnSale = true
		original := input.Price + input.Discount
		product.OriginalPrice = &original
	}
	return product
}
