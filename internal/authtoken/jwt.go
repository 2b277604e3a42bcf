// Package authtoken issues and validates the bearer tokens that identify
// callers on the privileged HTTP surface. The actor claim is the ledger
// address all role checks run against.
package authtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// Claims carried by an access token.
type Claims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// JWTService signs and validates HS256 access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey, issuer, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Issue signs a token identifying the actor.
func (s *JWTService) Issue(actor domain.Address, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Actor: string(actor),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses a token and returns the actor it identifies. The issuer
// and audience claims must match this service, so a token minted for another
// deployment sharing the signing key does not authenticate here.
func (s *JWTService) Validate(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	actor := domain.Address(claims.Actor)
	if actor.IsZero() {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthorized, "token carries no actor")
	}
	return actor, nil
}
