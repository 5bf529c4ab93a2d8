// Package auth turns dashboard bearer tokens into a restaurant-scoped actor.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/presentation/http/response"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

// Module provides the token verifier to Fx.
var Module = fx.Provide(NewVerifier)

// Actor is the authenticated staff member acting on behalf of a restaurant.
type Actor struct {
	UserID       uuid.UUID
	RestaurantID uuid.UUID
	Roles        []string
}

// Owns reports whether the actor belongs to restaurantID.
func (a Actor) Owns(restaurantID uuid.UUID) bool {
	return a.RestaurantID != uuid.Nil && a.RestaurantID == restaurantID
}

// Claims is the JWT payload issued by the identity service.
type Claims struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Roles        []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type actorKey struct{}

// WithActor stores the actor on ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored on ctx, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	enabled bool
	secret  []byte
	issuer  string
}

// NewVerifier builds a Verifier from configuration.
func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{
		enabled: cfg.Auth.Enabled,
		secret:  []byte(cfg.Auth.JWTSecret),
		issuer:  cfg.Auth.Issuer,
	}
}

// Enabled reports whether dashboard routes require a token.
func (v *Verifier) Enabled() bool { return v != nil && v.enabled }

// Parse validates tokenString and extracts the actor.
func (v *Verifier) Parse(tokenString string) (Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Actor{}, err
	}
	if !token.Valid {
		return Actor{}, errors.New("invalid token")
	}
	if claims.RestaurantID == uuid.Nil {
		return Actor{}, errors.New("token is not scoped to a restaurant")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	return Actor{UserID: userID, RestaurantID: claims.RestaurantID, Roles: claims.Roles}, nil
}

// Issue signs a token for actor, used by the CLI and tests.
func (v *Verifier) Issue(actor Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RestaurantID: actor.RestaurantID,
		Roles:        actor.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware requires a valid bearer token and stores the actor on the
// request context. It passes everything through when auth is disabled.
func (v *Verifier) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !v.Enabled() {
				return next(c)
			}

			raw, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return response.New(c).WithError(errorbank.Unauthorized(err.Error())).Build()
			}
			actor, err := v.Parse(raw)
			if err != nil {
				return response.New(c).WithError(errorbank.Unauthorized("invalid token", errorbank.WithCause(err))).Build()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithActor(req.Context(), actor)))
			return next(c)
		}
	}
}

// Authorize checks that the actor on ctx, if any, owns restaurantID.
func Authorize(ctx context.Context, restaurantID uuid.UUID) error {
	actor, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	if !actor.Owns(restaurantID) {
		return errorbank.Forbidden("outlet belongs to another restaurant")
	}
	return nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}
