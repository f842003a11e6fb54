package backend

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProductMapsFields(t *testing.T) {
	raw := json.RawMessage(`{
		"Id": 7,
		"Name": "fallback",
		"product_name_c": "Organic <b>Bananas</b>",
		"price_c": 2.49,
		"unit_c": "bunch",
		"discount_c": 0.5,
		"quantity_c": 12,
		"category_id_c": {"Id": 3, "Name": "Produce"}
	}`)

	product, err := decodeProduct(raw)

	require.NoError(t, err)
	assert.Equal(t, int64(7), product.ID)
	assert.Equal(t, "Organic Bananas", product.Name)
	assert.Equal(t, "Produce", product.Category)
	require.NotNil(t, product.CategoryID)
	assert.Equal(t, int64(3), *product.CategoryID)
	assert.Equal(t, int64(249), product.Price)
	assert.Equal(t, "bunch", product.Unit)
	assert.Equal(t, defaultProductImage, product.Image)
	assert.True(t, product.InStock)
	assert.True(t, product.OnSale)
	require.NotNil(t, product.OriginalPrice)
	assert.Equal(t, int64(299), *product.OriginalPrice)
}

func TestDecodeProductDefaults(t *testing.T) {
	product, err := decodeProduct(json.RawMessage(`{"Id": 1, "Name": "Plain Yogurt", "category_id_c": 4}`))

	require.NoError(t, err)
	assert.Equal(t, "Plain Yogurt", product.Name)
	assert.Equal(t, "General", product.Category)
	assert.Equal(t, int64(0), product.Price)
	assert.Equal(t, "each", product.Unit)
	assert.False(t, product.InStock)
	assert.False(t, product.OnSale)
	assert.Nil(t, product.OriginalPrice)
}

func TestDecodeProductMissingName(t *testing.T) {
	_, err := decodeProduct(json.RawMessage(`{"Id": 5, "price_c": 1}`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, int64(5), missing.RecordID)
	assert.Equal(t, "product_name_c", missing.Field)
}

func TestDecodeProductMissingID(t *testing.T) {
	_, err := decodeProduct(json.RawMessage(`{"Name": "Kale"}`))

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Id", missing.Field)
}

func TestDecodeCategoryFallsBackToName(t *testing.T) {
	category, err := decodeCategory(json.RawMessage(`{"Id": 2, "Name": "Dairy", "image_url_c": "https://img/dairy.jpg"}`))

	require.NoError(t, err)
	assert.Equal(t, "Dairy", category.Name)
	assert.Equal(t, "https://img/dairy.jpg", category.ImageURL)
}

func TestDecodePromoDefaults(t *testing.T) {
	promo, err := decodePromo(json.RawMessage(`{"Id": 4, "title_c": "Fresh Deals", "subtitle_c": "20% off", "is_active_c": true}`), 3)

	require.NoError(t, err)
	assert.Equal(t, 3, promo.Priority)
	assert.Equal(t, "/search", promo.CTALink)
	assert.Equal(t, "Shop Now", promo.CTAText)
	assert.Equal(t, "Fresh Deals - 20% off", promo.Description)
	assert.Equal(t, defaultPromoImage, promo.ImageURL)
	assert.True(t, promo.IsActive)
}

func TestEncodeProductCarriesID(t *testing.T) {
	id := int64(9)
	record := encodeProduct(&id, productInputFixture())

	assert.Equal(t, int64(9), record["Id"])
	assert.Equal(t, 3.5, record["price_c"])
	assert.Equal(t, "Sourdough", record["product_name_c"])
	assert.Equal(t, "loaf", record["unit_c"])
}
