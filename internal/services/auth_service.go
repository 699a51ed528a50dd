package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tailtown/internal/caching"
	"tailtown/internal/common"
	"tailtown/internal/metrics"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer     = "tailtown-auth"
	tokenAudience   = "tailtown-api"
	refreshTokenTTL = 7 * 24 * time.Hour
	loginMaxTries   = 5
	loginWindow     = 15 * time.Minute
)

// AuthService signs staff in and issues tenant bound tokens.
type AuthService interface {
	Login(ctx context.Context, scope tenancy.Scope, req *LoginRequest) (*models.TokenResponse, error)
	Refresh(ctx context.Context, scope tenancy.Scope, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenClaims are the JWT claims of an access token. TenantID is checked against the
// tenant resolved for every request.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo  repositories.UserRepository
	cacheSvc  caching.CacheService
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepository, cacheSvc caching.CacheService, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		cacheSvc:  cacheSvc,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// HashPassword hashes a staff password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func loginKey(scope tenancy.Scope, email string) string {
	return fmt.Sprintf("tailtown:login:%s:%s", scope.TenantID(), strings.ToLower(email))
}

func refreshKey(hash string) string {
	return "tailtown:refresh:" + hash
}

func (s *authService) Login(ctx context.Context, scope tenancy.Scope, req *LoginRequest) (*models.TokenResponse, error) {
	if _, err := scope.Require(); err != nil {
		return nil, err
	}
	key := loginKey(scope, req.Email)
	limited, err := s.cacheSvc.IsRateLimited(ctx, key, loginMaxTries, loginWindow)
	if err != nil {
		s.log.Warn("login rate limit check failed", zap.Error(err))
	}
	if limited {
		metrics.AuthAttempts.WithLabelValues("rate_limited").Inc()
		return nil, &common.AuthenticationError{Message: "too many login attempts, try again later"}
	}

	user, err := s.userRepo.GetByEmail(ctx, scope, req.Email)
	if common.IsNotFound(err) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, common.ErrInvalidCredentials
	}
	if user.Status != "active" {
		metrics.AuthAttempts.WithLabelValues("inactive").Inc()
		return nil, &common.AuthorizationError{Message: "account is not active"}
	}

	if err := s.cacheSvc.ResetRateLimit(ctx, key); err != nil {
		s.log.Warn("failed to reset login rate limit", zap.Error(err))
	}
	if err := s.userRepo.TouchLogin(ctx, scope, user.ID); err != nil {
		s.log.Warn("failed to record login time", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.GenerateTokens(ctx, user)
}

// GenerateTokens issues an HS256 access token and an opaque refresh token kept in Redis.
func (s *authService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()
	claims := TokenClaims{
		UserID:   user.ID.String(),
		TenantID: user.TenantID.String(),
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refresh, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	data := user.ID.String() + ":" + user.TenantID.String()
	if err := s.cacheSvc.SetString(ctx, refreshKey(hashToken(refresh)), data, refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		RefreshToken: refresh,
		UserID:       user.ID.String(),
		TenantID:     user.TenantID.String(),
		Role:         user.Role,
		IssuedAt:     now,
	}, nil
}

// Refresh rotates a refresh token. The token must belong to the tenant of the request and
// the user is reloaded so role and status changes take effect.
func (s *authService) Refresh(ctx context.Context, scope tenancy.Scope, refreshToken string) (*models.TokenResponse, error) {
	key := refreshKey(hashToken(refreshToken))
	data, err := s.cacheSvc.GetString(ctx, key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return nil, &common.AuthenticationError{Message: "invalid refresh token"}
	}
	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, &common.AuthenticationError{Message: "invalid refresh token"}
	}
	if parts[1] != scope.TenantID().String() {
		return nil, &common.AuthenticationError{Message: "invalid refresh token"}
	}

	user, err := s.userRepo.GetByID(ctx, scope, userID)
	if common.IsNotFound(err) {
		return nil, &common.AuthenticationError{Message: "invalid refresh token"}
	}
	if err != nil {
		return nil, err
	}
	if user.Status != "active" {
		return nil, &common.AuthorizationError{Message: "account is not active"}
	}

	if err := s.cacheSvc.Delete(ctx, key); err != nil {
		return nil, err
	}
	return s.GenerateTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.cacheSvc.Delete(ctx, refreshKey(hashToken(refreshToken)))
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(tokenAudience), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, &common.AuthenticationError{Message: "invalid or expired token"}
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, &common.AuthenticationError{Message: "invalid token claims"}
	}
	return claims, nil
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
