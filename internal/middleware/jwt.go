package middleware

import (
	"net/http"

	"instaviz/internal/common"
	"instaviz/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTMiddleware validates the bearer token and annotates the request
// context with the authenticated identity.
func JWTMiddleware(jwtSecret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return
			}

			sub, _ := claims["sub"].(string)
			userID, err := uuid.Parse(sub)
			if err != nil {
				return
			}
			userType, _ := claims["user_type"].(string)
			if userType == "" {
				userType = models.UserTypeUser
			}

			ctx := common.WithIdentity(c.Request().Context(), userID, userType)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	})
}

// AdminOnly rejects requests whose token does not carry the admin user
// type. Must run after JWTMiddleware.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !common.IsAdminContext(c.Request().Context()) {
				return common.SendForbiddenError(c, "Admin access required")
			}
			return next(c)
		}
	}
}
