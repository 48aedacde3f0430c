package server

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck-dev/taskdeck/internal/models"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

const sessionUserKey = "session_user"

func setSessionUser(c *gin.Context, user *models.User) {
	c.Set(sessionUserKey, user)
}

// sessionUser returns the authenticated user attached by the middleware.
func sessionUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(sessionUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// requestSchema extracts the tenant schema from the request's Host
// header. A bare development host carries no tenant.
func requestSchema(host string) string {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	if hostname == "localhost" || hostname == "127.0.0.1" {
		return ""
	}
	schema, ok := strings.CutSuffix(hostname, ".localhost")
	if !ok {
		return ""
	}
	return schema
}

// jwtAuthMiddleware validates the bearer token, loads the user, and
// enforces tenant isolation: a request addressed to a tenant subdomain is
// rejected when the caller belongs to a different tenant.
func (s *Server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.abortUnauthorized(c, err, "Missing or malformed authorization header")
			return
		}

		claims, err := s.issuer.Validate(token)
		if err != nil {
			s.abortUnauthorized(c, ErrInvalidToken, "Invalid or expired token")
			return
		}

		var user models.User
		if err := s.db.Preload("Tenant").Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			s.abortUnauthorized(c, ErrUserNotFound, "User not found")
			return
		}

		if schema := requestSchema(c.Request.Host); schema != "" {
			if user.Tenant == nil || user.Tenant.SchemaName != schema {
				s.logger.Warn().
					Str("request_schema", schema).
					Str("username", user.Username).
					Msg("Cross-tenant request denied")
				c.JSON(http.StatusForbidden, gin.H{"error": "Access to this tenant is not allowed"})
				c.Abort()
				return
			}
		}

		setSessionUser(c, &user)
		c.Next()
	}
}

func (s *Server) abortUnauthorized(c *gin.Context, err error, message string) {
	s.logger.Warn().Err(err).Msg(message)
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}
