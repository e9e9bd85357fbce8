package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "charitydesk-api"
	tokenAudience = "charitydesk-client"
)

// ResolvePrincipal attaches the request principal. A missing or invalid
// token, or a token whose user no longer exists, yields Anonymous; the
// request always continues and authorization happens in the services.
func (s *Server) ResolvePrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := s.principalFromHeader(c)
		c.Locals(principalKey, p)
		if p.Authenticated() {
			c.Locals("userID", p.ID)
			c.SetUserContext(middleware.WithUserID(c.UserContext(), p.ID))
		}
		return c.Next()
	}
}

func (s *Server) principalFromHeader(c *fiber.Ctx) access.Principal {
	header := c.Get(fiber.HeaderAuthorization)
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return access.Anonymous
	}

	userID, err := s.parseToken(strings.TrimSpace(tokenString))
	if err != nil {
		middleware.Logger.DebugContext(c.UserContext(), "rejected bearer token", "error", err)
		return access.Anonymous
	}

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		if !models.IsNotFound(err) {
			middleware.Logger.WarnContext(c.UserContext(), "principal lookup failed",
				"user_id", userID, "error", err)
		}
		return access.Anonymous
	}
	return access.PrincipalFor(user)
}

// parseToken validates signature, issuer, audience and time claims and
// returns the subject as a user ID.
func (s *Server) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid token subject %q", sub)
	}
	return uint(id), nil
}

// generateToken creates a signed JWT for the given user.
func (s *Server) generateToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	ttl := time.Duration(s.config.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
