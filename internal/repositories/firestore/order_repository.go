package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	pfirestore "github.com/apper-canvas/freshcartelevate/internal/platform/firestore"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const orderCollectionPattern = "shoppers/%s/orders"

// OrderRepository stores orders under shoppers/{shopperID}/orders/{id}.
type OrderRepository struct {
	provider *pfirestore.Provider
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

// List returns orders newest first, ordered by id which grows with each insert.
func (r *OrderRepository) List(ctx context.Context, shopperID string) ([]domain.Order, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	docs, err := pfirestore.DecodeAll[orderDocument]("orders.list", coll.OrderBy("id", firestore.Desc).Documents(ctx))
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, len(docs))
	for i, doc := range docs {
		orders[i] = decodeOrder(doc)
	}
	return orders, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, shopperID string, orderID int64) (domain.Order, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return domain.Order{}, err
	}
	snap, err := coll.Doc(orderDocID(orderID)).Get(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	doc, err := pfirestore.Decode[orderDocument](snap)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc), nil
}

// Insert reads the highest id and creates id+1 in one transaction.
func (r *OrderRepository) Insert(ctx context.Context, shopperID string, order domain.Order) (domain.Order, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return domain.Order{}, err
	}
	var created domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		iter := tx.Documents(coll.OrderBy("id", firestore.Desc).Limit(1))
		defer iter.Stop()
		var maxID int64
		snap, err := iter.Next()
		switch {
		case errors.Is(err, iterator.Done):
		case err != nil:
			return err
		default:
			latest, err := pfirestore.Decode[orderDocument](snap)
			if err != nil {
				return err
			}
			maxID = latest.ID
		}

		created = order
		created.ID = maxID + 1
		return tx.Create(coll.Doc(orderDocID(created.ID)), encodeOrder(created))
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.insert", err)
	}
	return created, nil
}

func (r *OrderRepository) Update(ctx context.Context, shopperID string, orderID int64, fn func(*domain.Order) error) (domain.Order, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return domain.Order{}, err
	}
	ref := coll.Doc(orderDocID(orderID))
	var updated domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := pfirestore.Decode[orderDocument](snap)
		if err != nil {
			return err
		}
		working := decodeOrder(doc)
		if err := fn(&working); err != nil {
			return err
		}
		working.ID = orderID
		updated = working
		return tx.Set(ref, encodeOrder(working))
	})
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			return domain.Order{}, err
		}
		return domain.Order{}, pfirestore.WrapError("orders.update", err)
	}
	return updated, nil
}

func (r *OrderRepository) Delete(ctx context.Context, shopperID string, orderID int64) (domain.Order, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return domain.Order{}, err
	}
	ref := coll.Doc(orderDocID(orderID))
	var removed domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := pfirestore.Decode[orderDocument](snap)
		if err != nil {
			return err
		}
		removed = decodeOrder(doc)
		return tx.Delete(ref, firestore.Exists)
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.delete", err)
	}
	return removed, nil
}

func (r *OrderRepository) collection(ctx context.Context, shopperID string) (*firestore.CollectionRef, error) {
	id := strings.TrimSpace(shopperID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "order repository: shopper id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("orders.client", err)
	}
	return client.Collection(fmt.Sprintf(orderCollectionPattern, id)), nil
}

func orderDocID(orderID int64) string {
	return strconv.FormatInt(orderID, 10)
}
