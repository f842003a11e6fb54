package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

const (
	defaultProductImage = "https://images.unsplash.com/photo-1546583087-d8f2000a5d92?w=400&h=300&fit=crop"
	defaultCategory     = "General"
	defaultUnit         = "each"
	defaultPromoImage   = "https://images.unsplash.com/photo-1619566636858-adf3ef46400b?w=800&h=400&fit=crop"
	defaultPromoLink    = "/search"
	promoCTAText        = "Shop Now"
)

// ErrMissingField is matched by MissingFieldError.
var ErrMissingField = errors.New("backend record: missing required field")

// MissingFieldError names the required field a backend record lacked.
type MissingFieldError struct {
	Table    string
	RecordID int64
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s record %d: missing required field %s", e.Table, e.RecordID, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

var textPolicy = bluemonday.StrictPolicy()

func cleanText(value string) string {
	return strings.TrimSpace(textPolicy.Sanitize(value))
}

// lookupRef decodes lookup columns, which arrive either as {"Id":1,"Name":"Dairy"} or a bare id.
type lookupRef struct {
	ID   *int64
	Name string
}

func (l *lookupRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			ID   *int64 `json:"Id"`
			Name string `json:"Name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		l.ID, l.Name = obj.ID, obj.Name
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	l.ID = &id
	return nil
}

type productRecord struct {
	ID          *int64     `json:"Id"`
	Name        string     `json:"Name"`
	ProductName string     `json:"product_name_c"`
	Description string     `json:"description_c"`
	Price       *float64   `json:"price_c"`
	ImageURL    string     `json:"image_url_c"`
	Featured    bool       `json:"is_featured_c"`
	Unit        string     `json:"unit_c"`
	Discount    *float64   `json:"discount_c"`
	Quantity    *float64   `json:"quantity_c"`
	Category    *lookupRef `json:"category_id_c"`
}

var productFields = []string{
	"Name", "product_name_c", "description_c", "price_c", "image_url_c",
	"is_featured_c", "unit_c", "discount_c", "quantity_c", "category_id_c",
}

func decodeProduct(raw json.RawMessage) (domain.Product, error) {
	var rec productRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Product{}, fmt.Errorf("decode %s record: %w", tableProducts, err)
	}
	if rec.ID == nil {
		return domain.Product{}, &MissingFieldError{Table: tableProducts, Field: "Id"}
	}
	name := cleanText(rec.ProductName)
	if name == "" {
		name = cleanText(rec.Name)
	}
	if name == "" {
		return domain.Product{}, &MissingFieldError{Table: tableProducts, RecordID: *rec.ID, Field: "product_name_c"}
	}

	product := domain.Product{
		ID:          *rec.ID,
		Name:        name,
		Description: cleanText(rec.Description),
		Category:    defaultCategory,
		Unit:        defaultUnit,
		Image:       defaultProductImage,
		Featured:    rec.Featured,
	}
	if rec.Category != nil {
		product.CategoryID = rec.Category.ID
		if category := cleanText(rec.Category.Name); category != "" {
			product.Category = category
		}
	}
	if rec.Price != nil {
		product.Price = toCents(*rec.Price)
	}
	if unit := strings.TrimSpace(rec.Unit); unit != "" {
		product.Unit = unit
	}
	if image := strings.TrimSpace(rec.ImageURL); image != "" {
		product.Image = image
	}
	if rec.Quantity != nil {
		product.Quantity = int(*rec.Quantity)
	}
	product.InStock = product.Quantity > 0
	if rec.Discount != nil && *rec.Discount > 0 {
		product.Discount = toCents(*rec.Discount)
		product.OnSale = true
		original := product.Price + product.Discount
		product.OriginalPrice = &original
	}
	return product, nil
}

func encodeProduct(id *int64, input domain.ProductInput) map[string]any {
	record := map[string]any{
		"Name":           input.Name,
		"product_name_c": input.Name,
		"description_c":  input.Description,
		"price_c":        fromCents(input.Price),
		"image_url_c":    input.Image,
		"is_featured_c":  input.Featured,
		"unit_c":         input.Unit,
		"discount_c":     fromCents(input.Discount),
		"quantity_c":     input.Quantity,
		"category_id_c":  input.CategoryID,
	}
	if input.Unit == "" {
		record["unit_c"] = defaultUnit
	}
	if id != nil {
		record["Id"] = *id
	}
	return record
}

type categoryRecord struct {
	ID           *int64 `json:"Id"`
	Name         string `json:"Name"`
	CategoryName string `json:"category_name_c"`
	ImageURL     string `json:"image_url_c"`
}

var categoryFields = []string{"Name", "category_name_c", "image_url_c"}

func decodeCategory(raw json.RawMessage) (domain.Category, error) {
	var rec categoryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Category{}, fmt.Errorf("decode %s record: %w", tableCategories, err)
	}
	if rec.ID == nil {
		return domain.Category{}, &MissingFieldError{Table: tableCategories, Field: "Id"}
	}
	name := cleanText(rec.CategoryName)
	if name == "" {
		name = cleanText(rec.Name)
	}
	if name == "" {
		return domain.Category{}, &MissingFieldError{Table: tableCategories, RecordID: *rec.ID, Field: "category_name_c"}
	}
	return domain.Category{ID: *rec.ID, Name: name, ImageURL: strings.TrimSpace(rec.ImageURL)}, nil
}

func encodeCategory(id *int64, input domain.CategoryInput) map[string]any {
	record := map[string]any{
		"Name":            input.Name,
		"category_name_c": input.Name,
		"image_url_c":     input.ImageURL,
	}
	if id != nil {
		record["Id"] = *id
	}
	return record
}

type promoRecord struct {
	ID          *int64 `json:"Id"`
	Name        string `json:"Name"`
	Title       string `json:"title_c"`
	Subtitle    string `json:"subtitle_c"`
	ImageURL    string `json:"image_url_c"`
	RedirectURL string `json:"redirect_url_c"`
	IsActive    bool   `json:"is_active_c"`
}

var promoFields = []string{"Name", "title_c", "subtitle_c", "image_url_c", "redirect_url_c", "is_active_c"}

// decodePromo maps a banner record. Priority is the record's 1-based position in the listing.
func decodePromo(raw json.RawMessage, position int) (domain.PromoBanner, error) {
	var rec promoRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.PromoBanner{}, fmt.Errorf("decode %s record: %w", tablePromos, err)
	}
	if rec.ID == nil {
		return domain.PromoBanner{}, &MissingFieldError{Table: tablePromos, Field: "Id"}
	}
	title := cleanText(rec.Title)
	if title == "" {
		title = cleanText(rec.Name)
	}
	if title == "" {
		return domain.PromoBanner{}, &MissingFieldError{Table: tablePromos, RecordID: *rec.ID, Field: "title_c"}
	}
	link := strings.TrimSpace(rec.RedirectURL)
	if link == "" {
		link = defaultPromoLink
	}
	image := strings.TrimSpace(rec.ImageURL)
	if image == "" {
		image = defaultPromoImage
	}
	subtitle := cleanText(rec.Subtitle)
	description := title
	if subtitle != "" {
		description = title + " - " + subtitle
	}
	return domain.PromoBanner{
		ID:          *rec.ID,
		Title:       title,
		Subtitle:    subtitle,
		Description: description,
		ImageURL:    image,
		CTAText:     promoCTAText,
		CTALink:     link,
		IsActive:    rec.IsActive,
		Priority:    position,
	}, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
