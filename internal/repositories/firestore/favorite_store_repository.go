package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/apper-canvas/freshcartelevate/internal/platform/firestore"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const favoriteStoreCollectionPattern = "shoppers/%s/favoriteStores"

// FavoriteStoreRepository stores favorite stores under shoppers/{shopperID}/favoriteStores.
type FavoriteStoreRepository struct {
	provider *pfirestore.Provider
	now      func() time.Time
}

var _ repositories.FavoriteStoreRepository = (*FavoriteStoreRepository)(nil)

func NewFavoriteStoreRepository(provider *pfirestore.Provider, clock func() time.Time) (*FavoriteStoreRepository, error) {
	if provider == nil {
		return nil, errors.New("favorite store repository requires firestore provider")
	}
	if clock == nil {
		clock = time.Now
	}
	return &FavoriteStoreRepository{provider: provider, now: clock}, nil
}

// List returns favorite store ids in the order they were added.
func (r *FavoriteStoreRepository) List(ctx context.Context, shopperID string) ([]int64, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	docs, err := pfirestore.DecodeAll[favoriteStoreDocument]("favorites.list", coll.OrderBy("addedAt", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(docs))
	for i, doc := range docs {
		ids[i] = doc.StoreID
	}
	return ids, nil
}

// Add checks membership and the limit inside one transaction.
func (r *FavoriteStoreRepository) Add(ctx context.Context, shopperID string, storeID int64, limit int) (bool, error) {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return false, err
	}
	created := false
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		ref := coll.Doc(strconv.FormatInt(storeID, 10))
		if _, err := tx.Get(ref); err == nil {
			return nil
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if limit > 0 {
			snaps, err := tx.Documents(coll.Select("storeId").Limit(limit)).GetAll()
			if err != nil {
				return err
			}
			if len(snaps) >= limit {
				return repositories.ErrFavoriteLimitReached
			}
		}

		if err := tx.Create(ref, favoriteStoreDocument{StoreID: storeID, AddedAt: r.now().UTC()}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, repositories.ErrFavoriteLimitReached) {
		return false, repositories.NewFavoriteLimitReached("favorites.add", limit)
	}
	if err != nil {
		return false, pfirestore.WrapError("favorites.add", err)
	}
	return created, nil
}

func (r *FavoriteStoreRepository) Remove(ctx context.Context, shopperID string, storeID int64) error {
	coll, err := r.collection(ctx, shopperID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(strconv.FormatInt(storeID, 10)).Delete(ctx); err != nil {
		return pfirestore.WrapError("favorites.remove", err)
	}
	return nil
}

func (r *FavoriteStoreRepository) collection(ctx context.Context, shopperID string) (*firestore.CollectionRef, error) {
	id := strings.TrimSpace(shopperID)
	if id == "" {
		return nil, errors.New("favorite store repository: shopper id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("favorites.client", err)
	}
	return client.Collection(fmt.Sprintf(favoriteStoreCollectionPattern, id)), nil
}
