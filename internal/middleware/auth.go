package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"gstvault/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware verifies the bearer token and yields the authenticated
// principal {userId, businessId} into the request context. Verification is
// HMAC by default; when a JWKS URL is configured the keys come from there.
type AuthMiddleware struct {
	keyFunc jwt.Keyfunc
}

func NewAuthMiddleware(jwtSecret, jwksURL string) (*AuthMiddleware, error) {
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshErrorHandler: func(err error) {
				log.Printf("JWKS refresh error: %v", err)
			},
		})
		if err != nil {
			return nil, err
		}
		return &AuthMiddleware{keyFunc: jwks.Keyfunc}, nil
	}
	return &AuthMiddleware{
		keyFunc: func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		},
	}, nil
}

func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format")
			}

			token, err := jwt.Parse(tokenString, m.keyFunc)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing user id in token")
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user id format")
			}

			// The business id comes from the verified token, never from a
			// client-supplied header; tenancy is not client-assertable.
			businessClaim, ok := claims["business_id"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "User is not associated with a business context")
			}
			businessID, err := uuid.Parse(businessClaim)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid business id format")
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.BusinessIDKey, businessID)
			ctx = context.WithValue(ctx, common.RequestIDKey, c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
