package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	pfirestore "github.com/apper-canvas/freshcartelevate/internal/platform/firestore"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const cartCollection = "carts"

type cartDocument struct {
	Items     []cartItemDocument `firestore:"items"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

// CartRepository stores one document per shopper under carts/{shopperID}.
type CartRepository struct {
	provider *pfirestore.Provider
	now      func() time.Time
}

var _ repositories.CartRepository = (*CartRepository)(nil)

func NewCartRepository(provider *pfirestore.Provider, clock func() time.Time) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	if clock == nil {
		clock = time.Now
	}
	return &CartRepository{provider: provider, now: clock}, nil
}

func (r *CartRepository) Get(ctx context.Context, shopperID string) ([]domain.CartItem, error) {
	ref, err := r.doc(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if pfirestore.IsNotFound(err) {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, pfirestore.WrapError("carts.get", err)
	}
	doc, err := pfirestore.Decode[cartDocument](snap)
	if err != nil {
		return nil, err
	}
	return decodeItems(doc.Items), nil
}

// Mutate reads and rewrites the cart inside a transaction. fn may run more than once
// when Firestore retries on contention.
func (r *CartRepository) Mutate(ctx context.Context, shopperID string, fn repositories.CartMutation) ([]domain.CartItem, error) {
	ref, err := r.doc(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	var result []domain.CartItem
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current := []domain.CartItem{}
		snap, err := tx.Get(ref)
		switch {
		case pfirestore.IsNotFound(err):
		case err != nil:
			return err
		default:
			doc, err := pfirestore.Decode[cartDocument](snap)
			if err != nil {
				return err
			}
			current = decodeItems(doc.Items)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			result = []domain.CartItem{}
			return tx.Delete(ref)
		}
		result = next
		return tx.Set(ref, cartDocument{Items: encodeItems(next), UpdatedAt: r.now().UTC()})
	})
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			return nil, err
		}
		return nil, pfirestore.WrapError("carts.mutate", err)
	}
	return result, nil
}

func (r *CartRepository) doc(ctx context.Context, shopperID string) (*firestore.DocumentRef, error) {
	id := strings.TrimSpace(shopperID)
	if id == "" {
		return nil, errors.New("cart repository: shopper id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("carts.client", err)
	}
	return client.Collection(cartCollection).Doc(id), nil
}
