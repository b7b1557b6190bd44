package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/upstream"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoActiveSession    = errors.New("no active session")
)

// AuthAPI is the slice of the upstream client the auth service consumes.
type AuthAPI interface {
	Authenticate(ctx context.Context, userID, password, role string) (*upstream.LoginResult, error)
	Register(ctx context.Context, req upstream.RegisterRequest) error
}

// Claims extends JWT standard claims with the portal identity. The token is
// the client's persisted credential; the matching Redis entry makes logout
// effective before expiry.
type Claims struct {
	jwt.RegisteredClaims
	Role   model.Role `json:"role"`
	UserID string     `json:"user_id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
}

// Session converts the claims back into the portal session they encode.
func (c *Claims) Session() model.Session {
	return model.Session{
		UserID: c.UserID,
		Name:   c.Name,
		Email:  c.Email,
		Role:   c.Role,
	}
}

// AuthService handles login, JWT issuance, and session persistence.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
	api AuthAPI
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, api AuthAPI) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, api: api}
}

// Login forwards credentials to the upstream API and, on success, mints a
// portal JWT and persists the session in Redis. A fresh login overwrites
// any previous session for the same user, matching the replace-on-login
// behavior of a browser's stored credential.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	result, err := s.api.Authenticate(ctx, req.UserID, req.Password, string(req.Role))
	if err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) && upErr.StatusCode < 500 {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate upstream: %w", err)
	}

	// The upstream models roles as flags; the requested role must be one
	// the account actually holds.
	if (req.Role == model.RoleTrainer && !result.User.IsTrainer) ||
		(req.Role == model.RoleParticipant && !result.User.IsParticipant) {
		return nil, ErrInvalidCredentials
	}

	sess := model.Session{
		UserID: result.User.UserID,
		Name:   result.User.FullName,
		Email:  result.User.Email,
		Role:   req.Role,
	}

	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role:   sess.Role,
		UserID: sess.UserID,
		Name:   sess.Name,
		Email:  sess.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	// Persist the session with the same expiry as the JWT. The upstream
	// token rides along so later upstream calls act on the user's behalf.
	sessionKey := config.CacheKey.UserSessionKey(sess.UserID)
	if err := s.rdb.HSet(ctx, sessionKey,
		"jti", jti,
		"upstream_token", result.Token,
		"role", string(sess.Role),
	).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := s.rdb.Expire(ctx, sessionKey, s.cfg.JWTExpiry).Err(); err != nil {
		return nil, fmt.Errorf("expire session: %w", err)
	}

	return &model.LoginResponse{Token: signed, User: sess}, nil
}

// Register forwards an account creation request upstream.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	return s.api.Register(ctx, upstream.RegisterRequest{
		FullName:      req.FullName,
		Email:         req.Email,
		UserID:        req.UserID,
		Password:      req.Password,
		IsTrainer:     req.Role == model.RoleTrainer,
		IsParticipant: req.Role == model.RoleParticipant,
	})
}

// ValidateToken parses and validates a portal JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateSession checks that the token's JTI matches the persisted session.
// A mismatch means the user logged in elsewhere or logged out.
func (s *AuthService) ValidateSession(ctx context.Context, userID, jti string) error {
	stored, err := s.rdb.HGet(ctx, config.CacheKey.UserSessionKey(userID), "jti").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return errors.New("session invalidated")
	}
	return nil
}

// UpstreamToken returns the upstream API token stored with the session.
func (s *AuthService) UpstreamToken(ctx context.Context, userID string) (string, error) {
	token, err := s.rdb.HGet(ctx, config.CacheKey.UserSessionKey(userID), "upstream_token").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoActiveSession
		}
		return "", fmt.Errorf("get upstream token: %w", err)
	}
	return token, nil
}

// Logout destroys the persisted session, invalidating the token ahead of
// its expiry.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}
