package httptransport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// TokenValidator validates a bearer token and returns the actor it names.
type TokenValidator interface {
	Validate(token string) (domain.Address, error)
}

// TokenIssuer mints access tokens for actors that presented the issuing
// secret.
type TokenIssuer interface {
	Issue(actor domain.Address, expiresIn time.Duration) (string, error)
}

type actorKey struct{}

// ActorFrom returns the authenticated actor set by RequireAuth.
func ActorFrom(ctx context.Context) domain.Address {
	actor, _ := ctx.Value(actorKey{}).(domain.Address)
	return actor
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated actor in the request context.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			actor, err := validator.Validate(token)
			if err != nil {
				WriteError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
