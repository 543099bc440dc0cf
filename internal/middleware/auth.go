package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/services"
	"github.com/spf13/viper"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
	claimsKey contextKey = "claims"
)

var errMissingToken = errors.New("authorization header required")

// Claims carried by every access token.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates HS256 bearer tokens. Logged-out tokens
// are kept in Redis until they would have expired anyway.
type Authenticator struct {
	secret []byte
	expiry time.Duration
	redis  *redis.Client
	now    func() time.Time
}

func NewAuthenticator(secret string, expiry time.Duration, client *redis.Client) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		expiry: expiry,
		redis:  client,
		now:    time.Now,
	}
}

// NewAuthenticatorFromConfig reads jwt.secret_key and jwt.expiry_hours.
func NewAuthenticatorFromConfig(client *redis.Client) *Authenticator {
	viper.SetDefault("jwt.expiry_hours", 24)
	return NewAuthenticator(
		viper.GetString("jwt.secret_key"),
		time.Duration(viper.GetInt("jwt.expiry_hours"))*time.Hour,
		client,
	)
}

// IssueToken signs a token for the given user and role.
func (a *Authenticator) IssueToken(userID string, role models.Role) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
		},
	})
	return token.SignedString(a.secret)
}

func (a *Authenticator) validateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	switch claims.Role {
	case models.RoleStudent, models.RoleTeacher:
	default:
		return nil, errors.New("unknown role")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

// Middleware rejects requests without a valid, non-revoked bearer token and
// puts the caller's identity on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			services.SendErrorResponse(w, err.Error(), http.StatusUnauthorized, nil)
			return
		}

		claims, err := a.validateToken(token)
		if err != nil {
			services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
			return
		}

		if a.redis != nil {
			n, err := a.redis.Exists(r.Context(), blacklistKey(token)).Result()
			if err != nil {
				log.Printf("[AUTH] blacklist lookup failed: %v", err)
				services.SendErrorResponse(w, "Authentication temporarily unavailable", http.StatusServiceUnavailable, nil)
				return
			}
			if n > 0 {
				services.SendErrorResponse(w, "Token has been revoked", http.StatusUnauthorized, nil)
				return
			}
		}

		ctx := WithIdentity(r.Context(), claims.UserID, claims.Role)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logout godoc
// @Summary Logout
// @Description Revoke the bearer token used for this request
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Response
// @Failure 401 {object} services.Response
// @Router /auth/logout [post]
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusUnauthorized, nil)
		return
	}
	claims, _ := r.Context().Value(claimsKey).(*Claims)
	if claims == nil {
		if claims, err = a.validateToken(token); err != nil {
			services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
			return
		}
	}

	if a.redis != nil && claims.ExpiresAt != nil {
		ttl := claims.ExpiresAt.Time.Sub(a.now())
		if ttl > 0 {
			if err := a.redis.Set(r.Context(), blacklistKey(token), "revoked", ttl).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
				services.SendErrorResponse(w, "Logout failed", http.StatusServiceUnavailable, nil)
				return
			}
		}
	}

	services.SendSuccess(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// RequireRole lets through only callers authenticated with role.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Role(r.Context()) != role {
				services.SendError(w, services.ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity attaches an authenticated caller to ctx.
func WithIdentity(ctx context.Context, userID string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func Role(ctx context.Context) models.Role {
	role, _ := ctx.Value(roleKey).(models.Role)
	return role
}
