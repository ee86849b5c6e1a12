package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService struct {
	users      UserStore
	allocation *AllocationService
	jwtSecret  []byte // Stored in env (JWT_SECRET)
	jwtExpiry  time.Duration
	adminEmail string
	clock      clockwork.Clock
	logger     *slog.Logger
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	// Registering with this address grants the admin role
	AdminEmail string
}

func NewAuthService(users UserStore, allocation *AllocationService, cfg AuthConfig, opts ...Option) *AuthService {
	o := buildOptions(opts)

	return &AuthService{
		users:      users,
		allocation: allocation,
		jwtSecret:  []byte(cfg.JWTSecret),
		jwtExpiry:  cfg.JWTExpiry,
		adminEmail: normalizeEmail(cfg.AdminEmail),
		clock:      o.clock,
		logger:     o.logger,
	}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// Claims identifies the caller behind a validated token
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user together with their starting daily limit
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, newValidationError("email", "must be a valid email address")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return nil, newValidationError("name", "must be between 1 and 100 characters")
	}
	if len(in.Password) < minPasswordLength {
		return nil, newValidationError("password", "must be at least %d characters", minPasswordLength)
	}

	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, &ConflictError{Message: "user with this email already exists"}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		Role:         models.RoleUser,
		UnitPref:     models.UnitCelsius,
		IsActive:     true,
	}
	if s.adminEmail != "" && email == s.adminEmail {
		user.Role = models.RoleAdmin
	}

	var limit *models.UserLimit
	grant, err := s.allocation.GrantDefault(ctx, func(dailyLimit int) error {
		limit = &models.UserLimit{DailyLimit: dailyLimit}
		return s.users.CreateWithLimit(ctx, user, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.UserLimit = limit

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role, "daily_limit", grant)
	return user, nil
}

// Authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	if user == nil || !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
		"exp":     now.Add(s.jwtExpiry).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, user, nil
}

// Validates a JWT token and returns the caller's claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	rawID, _ := mapClaims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errors.New("invalid token subject")
	}

	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)

	return &Claims{UserID: userID, Email: email, Role: role}, nil
}

// Retrieves a user by ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	return user, nil
}
