package firestore

import (
	"time"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
)

type cartItemDocument struct {
	ProductID int64  `firestore:"productId"`
	Name      string `firestore:"name"`
	Price     int64  `firestore:"price"`
	Unit      string `firestore:"unit"`
	Image     string `firestore:"image"`
	Quantity  int    `firestore:"quantity"`
}

func encodeItems(items []domain.CartItem) []cartItemDocument {
	out := make([]cartItemDocument, len(items))
	for i, item := range items {
		out[i] = cartItemDocument(item)
	}
	return out
}

func decodeItems(docs []cartItemDocument) []domain.CartItem {
	out := make([]domain.CartItem, len(docs))
	for i, doc := range docs {
		out[i] = domain.CartItem(doc)
	}
	return out
}

type slotDocument struct {
	ID        int    `firestore:"id"`
	Date      string `firestore:"date"`
	Time      string `firestore:"time"`
	Available bool   `firestore:"available"`
}

type addressDocument struct {
	Name         string `firestore:"name"`
	Street       string `firestore:"street"`
	City         string `firestore:"city"`
	State        string `firestore:"state"`
	ZipCode      string `firestore:"zipCode"`
	Phone        string `firestore:"phone"`
	Instructions string `firestore:"instructions"`
}

type orderDocument struct {
	ID              int64              `firestore:"id"`
	Items           []cartItemDocument `firestore:"items"`
	Subtotal        int64              `firestore:"subtotal"`
	Tax             int64              `firestore:"tax"`
	DeliveryFee     int64              `firestore:"deliveryFee"`
	Total           int64              `firestore:"total"`
	DeliverySlot    *slotDocument      `firestore:"deliverySlot"`
	DeliveryAddress *addressDocument   `firestore:"deliveryAddress"`
	Status          string             `firestore:"status"`
	CreatedAt       time.Time          `firestore:"createdAt"`
}

func encodeOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		ID:          order.ID,
		Items:       encodeItems(order.Items),
		Subtotal:    order.Totals.Subtotal,
		Tax:         order.Totals.Tax,
		DeliveryFee: order.Totals.DeliveryFee,
		Total:       order.Totals.Total,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt.UTC(),
	}
	if order.DeliverySlot != nil {
		slot := slotDocument(*order.DeliverySlot)
		doc.DeliverySlot = &slot
	}
	if order.DeliveryAddress != nil {
		addr := addressDocument(*order.DeliveryAddress)
		doc.DeliveryAddress = &addr
	}
	return doc
}

func decodeOrder(doc orderDocument) domain.Order {
	order := domain.Order{
		ID:    doc.ID,
		Items: decodeItems(doc.Items),
		Totals: domain.Totals{
			Subtotal:    doc.Subtotal,
			Tax:         doc.Tax,
			DeliveryFee: doc.DeliveryFee,
			Total:       doc.Total,
		},
		Status:    domain.OrderStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
	}
	if doc.DeliverySlot != nil {
		slot := domain.DeliverySlot(*doc.DeliverySlot)
		order.DeliverySlot = &slot
	}
	if doc.DeliveryAddress != nil {
		addr := domain.DeliveryAddress(*doc.DeliveryAddress)
		order.DeliveryAddress = &addr
	}
	return order
}

type favoriteStoreDocument struct {
	StoreID int64     `firestore:"storeId"`
	AddedAt time.Time `firestore:"addedAt"`
}
