package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned on unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for malformed, expired or mis-signed tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrAccountDisabled is returned when the account exists but is inactive.
	ErrAccountDisabled = errors.New("account is disabled")
)

// LoginRecorder appends a successful login to the login log.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, userID uuid.UUID, source string) error
}

// Service authenticates accounts and issues JWT tokens.
type Service struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
	logins   LoginRecorder
	logger   *zap.Logger
}

// NewService creates the auth service. The signing secret comes from
// configuration, never from source.
func NewService(db *gorm.DB, secret string, tokenTTL time.Duration, logins LoginRecorder, logger *zap.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logins:   logins,
		logger:   logger,
	}
}

// Login verifies the credentials, records the login event and returns a
// signed token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.generateJWT(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.logins.RecordLogin(ctx, user.UserID, "console"); err != nil {
		// The login log feeds analytics only; a write failure must not
		// block the sign-in itself.
		s.logger.Warn("failed to record login", zap.String("user_id", user.UserID.String()), zap.Error(err))
	}

	user.PasswordHash = ""
	return &model.LoginResponse{Token: token, User: user}, nil
}

// ValidateToken parses and verifies a token and rebuilds the actor it
// represents.
func (s *Service) ValidateToken(tokenString string) (*model.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &model.Actor{
		UserID:     userID,
		Email:      claims.Email,
		Role:       model.Role(claims.Role),
		Department: model.Department(claims.Department),
	}, nil
}

func (s *Service) generateJWT(user *model.User) (string, error) {
	claims := &model.JWTClaims{
		UserID:     user.UserID.String(),
		Email:      user.Email,
		Role:       string(user.Role),
		Department: string(user.Department),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
