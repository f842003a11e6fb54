package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Shopper is the principal every cart, order and favorite is scoped to.
type Shopper struct {
	ID    string
	Email string
	Guest bool

	token *firebaseauth.Token
}

// Token exposes the decoded Firebase ID token; nil for guests.
func (s *Shopper) Token() *firebaseauth.Token {
	if s == nil {
		return nil
	}
	return s.token
}

type contextKey string

const shopperContextKey contextKey = "freshcart/auth/shopper"

func WithShopper(ctx context.Context, shopper *Shopper) context.Context {
	return context.WithValue(ctx, shopperContextKey, shopper)
}

func ShopperFromContext(ctx context.Context) (*Shopper, bool) {
	shopper, ok := ctx.Value(shopperContextKey).(*Shopper)
	if !ok || shopper == nil {
		return nil, false
	}
	return shopper, true
}

func claimAsString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
