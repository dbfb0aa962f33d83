package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenLocal  = "session"
	userIDLocal = "user_id"
)

// JWTProtected accepts "Bearer <token>" in Authorization or the legacy
// X-Authorization header. The codec's Verify runs first so an expired token
// gets its own message.
func JWTProtected(codec *services.TokenCodec) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenLookup: "header:" + fiber.HeaderAuthorization + ",header:X-Authorization",
		AuthScheme:  "Bearer",
		ContextKey:  tokenLocal,
		Claims:      &services.SessionClaims{},
		KeyFunc:     codec.Keyfunc,
		TokenProcessorFunc: func(token string) (string, error) {
			if _, err := codec.Verify(token); err != nil {
				return "", err
			}
			return token, nil
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenLocal).(*jwt.Token)
			if !ok {
				return unauthorized(c, "Unauthorized")
			}
			claims, ok := token.Claims.(*services.SessionClaims)
			if !ok || claims.UserID <= 0 {
				return unauthorized(c, "Unauthorized")
			}
			c.Locals(userIDLocal, claims.UserID)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, services.ErrTokenExpired) {
				return unauthorized(c, "Unauthorized: token expired")
			}
			return unauthorized(c, "Unauthorized")
		},
	})
}

// UserID returns the authenticated user id set by JWTProtected.
func UserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(userIDLocal).(int64)
	return id, ok && id > 0
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
