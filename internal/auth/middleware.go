package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrNoClaims     = errors.New("no claims in context")
)

// TokenFromRequest Authorization 헤더(Bearer) 또는 access_token 쿠키에서 토큰 추출
func TokenFromRequest(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		token := c.Cookies("access_token")
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// AuthMiddleware JWT 인증 미들웨어
func AuthMiddleware(jwtManager *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := TokenFromRequest(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		// 사용자 정보를 컨텍스트에 저장
		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// GetClaimsFromContext 컨텍스트에서 클레임 조회
func GetClaimsFromContext(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}
