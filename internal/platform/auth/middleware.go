package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/platform/httpx"
	"github.com/apper-canvas/freshcartelevate/internal/platform/requestctx"
)

const defaultVerifyTimeout = 5 * time.Second

var (
	ErrTokenExpired = errors.New("auth: firebase id token expired")
	ErrTokenInvalid = errors.New("auth: firebase id token invalid")
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// ShopperResolver attaches the shopper identity to every request. Without a verifier
// every request is served as the guest shopper.
type ShopperResolver struct {
	verifier TokenVerifier
	timeout  time.Duration
}

type Option func(*ShopperResolver)

func WithVerificationTimeout(d time.Duration) Option {
	return func(r *ShopperResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewShopperResolver(verifier TokenVerifier, opts ...Option) *ShopperResolver {
	r := &ShopperResolver{verifier: verifier, timeout: defaultVerifyTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Middleware requires a bearer token when a verifier is configured.
func (r *ShopperResolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r == nil || r.verifier == nil {
				next.ServeHTTP(w, req.WithContext(attach(req.Context(), &Shopper{ID: domain.GuestShopperID, Guest: true})))
				return
			}

			tokenStr, ok := extractBearerToken(req.Header.Get("Authorization"))
			if !ok {
				httpx.WriteError(req.Context(), w, httpx.NewError("unauthenticated", "authorization header missing or invalid", http.StatusUnauthorized))
				return
			}

			ctx := req.Context()
			if r.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			token, err := r.verifier.VerifyIDToken(ctx, tokenStr)
			if err != nil {
				respondVerificationError(req.Context(), w, err)
				return
			}
			if strings.TrimSpace(token.UID) == "" {
				httpx.WriteError(req.Context(), w, httpx.NewError("invalid_token", "firebase id token has no subject", http.StatusUnauthorized))
				return
			}

			shopper := &Shopper{
				ID:    token.UID,
				Email: claimAsString(token.Claims, "email"),
				token: token,
			}
			next.ServeHTTP(w, req.WithContext(attach(req.Context(), shopper)))
		})
	}
}

func attach(ctx context.Context, shopper *Shopper) context.Context {
	ctx = WithShopper(ctx, shopper)
	return requestctx.WithShopperID(ctx, shopper.ID)
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func respondVerificationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired), firebaseauth.IsIDTokenExpired(err):
		httpx.WriteError(ctx, w, httpx.NewError("token_expired", "firebase id token expired", http.StatusUnauthorized))
	case firebaseauth.IsIDTokenRevoked(err):
		httpx.WriteError(ctx, w, httpx.NewError("token_revoked", "firebase session revoked", http.StatusUnauthorized))
	case errors.Is(err, ErrTokenInvalid), firebaseauth.IsIDTokenInvalid(err):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "firebase id token invalid", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "firebase id token verification failed", http.StatusUnauthorized))
	}
}
