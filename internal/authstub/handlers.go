package authstub

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by login and by register when a session is issued
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        *UserResponse `json:"user"`
}

// PendingRegistrationResponse is returned by register when email verification is required
type PendingRegistrationResponse struct {
	Message string `json:"message"`
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// bindJSON decodes and validates the body. On failure it writes the response
// and returns false.
func (s *Server) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{
			Loc:  []string{"body"},
			Msg:  "Invalid JSON body",
			Type: "value_error.json",
		}}})
		return false
	}

	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return false
		}
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{
				Loc:  []string{"body", jsonFieldName(fe.Field())},
				Msg:  validationMessage(fe),
				Type: "value_error." + fe.Tag(),
			})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": details})
		return false
	}

	return true
}

func jsonFieldName(field string) string {
	switch field {
	case "FullName":
		return "full_name"
	default:
		return strings.ToLower(field)
	}
}

func validationMessage(fe validator.FieldError) string {
	name := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "value is not a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var existing User
	err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error
	switch {
	case err == nil:
		if existing.Email == req.Email {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already taken"})
		}
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error().Err(err).Msg("Failed to look up existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	user := &User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hash,
		IsActive:       true,
		Role:           defaultRole,
	}
	if err := s.db.Create(user).Error; err != nil {
		// Lost a race with a concurrent registration
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "User with this email or username already exists"})
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("New user registered")

	if s.config.Auth.RequireEmailVerification {
		c.JSON(http.StatusCreated, PendingRegistrationResponse{
			Message: "Registration successful. Please verify your email before signing in.",
		})
		return
	}

	token, err := s.tokens.issue(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.response(),
	})
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Login failed"})
		return
	}

	if err := verifyPassword(req.Password, user.HashedPassword); err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"detail": "User account is inactive"})
		return
	}

	token, err := s.tokens.issue(&user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Login failed"})
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.response(),
	})
}

func (s *Server) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		unauthorized(c)
		return
	}

	c.JSON(http.StatusOK, user.response())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "authentication"})
}
