package middleware

import (
	"net/http"
	"strings"

	"aidat-service/internal/model"
	"aidat-service/pkg/jwtutil"
	"aidat-service/pkg/logger"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Extract the token
		tokenString := parts[1]

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		// Token is valid, proceed with the request
		return next(c)
	}
}

// RequireRole restricts a route group to one of the two account roles.
// Role checks happen here exclusively, so handlers never compare role
// strings by hand.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			got, ok := c.Get("role").(model.Role)
			if !ok || !got.Valid() {
				log.Error("Missing role in authenticated context")
				prometheus.RecordAuthError("missing_role")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Yetkisiz."})
			}

			if got != role {
				log.Warn("Role not permitted for route",
					zap.String("have", string(got)),
					zap.String("want", string(role)))
				prometheus.RecordAuthError("wrong_role")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Yetkisiz."})
			}

			return next(c)
		}
	}
}

// UserID returns the authenticated user's id from the context.
func UserID(c echo.Context) uint {
	id, _ := c.Get("user_id").(uint)
	return id
}
