// file: internal/middleware/auth.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wellnesshub/internal/contextutils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// HeaderXUserID carries the caller identity when anonymous access is enabled
const HeaderXUserID = "X-User-ID"

// AuthConfig holds authentication middleware configuration
type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens
	JWTSecret string
	// JWTIssuer, when set, must match the token's iss claim
	JWTIssuer string
	// AllowAnonymous trusts the X-User-ID header instead of a token. Local
	// development only.
	AllowAnonymous bool
	// Leeway tolerates clock skew on exp and nbf
	Leeway time.Duration
}

// AuthMiddleware verifies bearer tokens and puts the token subject in the
// request context as the user ID
type AuthMiddleware struct {
	config *AuthConfig
	parser *jwt.Parser
	logger *zap.Logger
}

// NewAuthMiddleware creates the authentication middleware
func NewAuthMiddleware(config *AuthConfig, logger *zap.Logger) (*AuthMiddleware, error) {
	if config == nil {
		return nil, errors.New("auth config is required")
	}
	if !config.AllowAnonymous && config.JWTSecret == "" {
		return nil, errors.New("JWT secret is required unless anonymous access is allowed")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(config.JWTIssuer))
	}

	return &AuthMiddleware{
		config: config,
		parser: jwt.NewParser(opts...),
		logger: logger,
	}, nil
}

// RequireAuth rejects requests without a valid identity
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestLogger := GetRequestLogger(r.Context())

			userID, err := am.authenticateRequest(r)
			if err != nil {
				requestLogger.Warn("Authentication failed", zap.Error(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="wellnesshub"`)
				writeJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			ctx := contextutils.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticateRequest returns the caller's user ID
func (am *AuthMiddleware) authenticateRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")

	if authHeader == "" && am.config.AllowAnonymous {
		userID := strings.TrimSpace(r.Header.Get(HeaderXUserID))
		if userID == "" {
			return "", fmt.Errorf("missing %s header", HeaderXUserID)
		}
		return userID, nil
	}

	if authHeader == "" {
		return "", errors.New("no authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	return am.parseToken(strings.TrimSpace(parts[1]))
}

// parseToken validates an HS256 token and returns its subject
func (am *AuthMiddleware) parseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := am.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(am.config.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}
