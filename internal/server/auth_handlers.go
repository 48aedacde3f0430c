package server

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/auth"
	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents an account creation request
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	Organization    string `json:"organization" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// CreateUserRequest represents a tenant-scoped user creation request
type CreateUserRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// AuthResponse is the envelope every auth endpoint returns. Failures ride
// in the envelope with success=false rather than a non-200 status, which
// is the contract the client expects.
type AuthResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty"`
	ExpiresIn   int          `json:"expires_in,omitempty"`
	User        *models.User `json:"user,omitempty"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

func authFailure(c *gin.Context, message string) {
	c.JSON(http.StatusOK, AuthResponse{Success: false, Message: message})
}

func (s *Server) loginJWT(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFailure(c, "Username and password are required")
		return
	}

	var user models.User
	if err := s.db.Preload("Tenant").Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			authFailure(c, "Invalid credentials")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		authFailure(c, "Invalid credentials")
		return
	}

	token, err := s.issuer.Generate(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// Users logging in on the bare host are redirected onto their
	// tenant's subdomain; on the right host already, no redirect.
	redirectURL := ""
	if user.Tenant != nil && requestSchema(c.Request.Host) != user.Tenant.SchemaName {
		redirectURL = s.tenantURL(user.Tenant)
	}

	s.logger.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	c.JSON(http.StatusOK, AuthResponse{
		Success:     true,
		Message:     "Login successful",
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
		User:        &user,
		RedirectURL: redirectURL,
	})
}

func (s *Server) registerJWT(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFailure(c, "All required registration fields must be provided")
		return
	}

	if req.Password != req.PasswordConfirm {
		authFailure(c, "Passwords do not match")
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check username")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		authFailure(c, "Username already exists")
		return
	}

	tenant, err := s.findOrCreateTenant(req.Organization)
	if err != nil {
		s.logger.Error().Err(err).Str("organization", req.Organization).Msg("Failed to resolve tenant")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create organization"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		TenantID:     &tenant.ID,
		Tenant:       tenant,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	// A token is issued for API symmetry, but clients are expected to
	// log in explicitly after registering.
	token, err := s.issuer.Generate(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().
		Uint("user_id", user.ID).
		Str("username", user.Username).
		Str("tenant", tenant.SchemaName).
		Msg("User registered")

	c.JSON(http.StatusOK, AuthResponse{
		Success:     true,
		Message:     "Account created, please log in",
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
		User:        user,
	})
}

// StatusResponse is the session validation payload
type StatusResponse struct {
	IsAuthenticated bool           `json:"is_authenticated"`
	User            *models.User   `json:"user,omitempty"`
	TenantInfo      *models.Tenant `json:"tenant_info,omitempty"`
}

func (s *Server) checkAuthJWT(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		IsAuthenticated: true,
		User:            user,
		TenantInfo:      user.Tenant,
	})
}

func (s *Server) profileJWT(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) logoutJWT(c *gin.Context) {
	// Tokens are stateless; invalidation is the client dropping the
	// credential. The endpoint exists so clients can report the logout.
	if user, ok := sessionUser(c); ok {
		s.logger.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("User logged out")
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (s *Server) createUserTenant(c *gin.Context) {
	creator, ok := sessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if creator.Tenant == nil {
		authFailure(c, "Your account is not bound to an organization")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFailure(c, "All required user fields must be provided")
		return
	}

	if req.Password != req.PasswordConfirm {
		authFailure(c, "Passwords do not match")
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check username")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		authFailure(c, "Username already exists")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		TenantID:     creator.TenantID,
		Tenant:       creator.Tenant,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().
		Uint("user_id", user.ID).
		Str("created_by", creator.Username).
		Str("tenant", creator.Tenant.SchemaName).
		Msg("Tenant user created")

	c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "User created",
		User:    user,
	})
}

// findOrCreateTenant resolves an organization name to a tenant, creating
// it on first registration.
func (s *Server) findOrCreateTenant(organization string) (*models.Tenant, error) {
	schema := schemaName(organization)

	var tenant models.Tenant
	err := s.db.Where("schema_name = ?", schema).First(&tenant).Error
	if err == nil {
		return &tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tenant = models.Tenant{Name: organization, SchemaName: schema}
	if err := s.db.Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// schemaName derives a subdomain-safe schema key from an organization
// name: lowercase letters and digits only.
func schemaName(organization string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(organization) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tenantURL builds the absolute URL of a tenant's subdomain.
func (s *Server) tenantURL(tenant *models.Tenant) string {
	port := strings.TrimPrefix(s.config.Addr, ":")
	if i := strings.LastIndex(s.config.Addr, ":"); i >= 0 {
		port = s.config.Addr[i+1:]
	}
	return "http://" + tenant.ExpectedDomain() + ":" + port + "/"
}
