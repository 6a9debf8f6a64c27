package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/peergrade-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// binds the caller's student id and role to the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")

		const bearer = "Bearer "
		if !strings.HasPrefix(authorization, bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing or malformed")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if studentID := studentIDFromClaims(claims); studentID != nil {
			c.Locals("student_id", *studentID)
		}
		if role, ok := claims["role"].(string); ok {
			c.Locals("student_role", strings.ToLower(strings.TrimSpace(role)))
		}

		return c.Next()
	}
}

// CallerID returns the authenticated student id bound to the request, or zero.
func CallerID(c *fiber.Ctx) uint {
	if value := c.Locals("student_id"); value != nil {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}

func studentIDFromClaims(claims jwt.MapClaims) *uint {
	for _, key := range []string{"sub", "student_id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v >= 0 {
				id := uint(v)
				return &id
			}
		case string:
			if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
				id := uint(parsed)
				return &id
			}
		}
	}

	return nil
}
