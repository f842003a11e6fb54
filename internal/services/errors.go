package services

import (
	"errors"

	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

var (
	// ErrInvalidInput marks caller mistakes. Messages are wrapped with fmt.Errorf("%w: ...").
	ErrInvalidInput = errors.New("invalid input")

	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrPromoNotFound    = errors.New("promo banner not found")
	ErrSlotNotFound     = errors.New("delivery slot not found")
	ErrSlotUnavailable  = errors.New("delivery slot unavailable")
	ErrStoreNotFound    = errors.New("store not found")

	ErrFavoriteLimitExceeded = errors.New("favorite store limit exceeded")
	ErrNoFavoriteStores      = errors.New("no favorite stores")

	// ErrCatalogUnavailable reports a record backend failure. Callers may retry.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrStorageUnavailable reports a cart, order or favorites store failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// translateRepoError maps repository failures onto service sentinels. Errors that already
// carry a service sentinel pass through.
func translateRepoError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrInvalidInput, ErrCartItemNotFound, ErrOrderNotFound, ErrFavoriteLimitExceeded} {
		if errors.Is(err, known) {
			return err
		}
	}
	if notFound != nil && isRepoNotFound(err) {
		return notFound
	}
	return errors.Join(ErrStorageUnavailable, err)
}
