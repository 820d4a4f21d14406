package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellnesshub/internal/middleware"
	"wellnesshub/internal/models"
	"wellnesshub/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubBadgeService struct {
	evaluatedFor string
}

func (s *stubBadgeService) Evaluate(ctx context.Context, userID string) ([]*models.NewlyEarnedBadge, error) {
	s.evaluatedFor = userID
	return []*models.NewlyEarnedBadge{}, nil
}

func (s *stubBadgeService) GetUserBadges(ctx context.Context, userID string, limit *int) ([]*models.UserBadgeView, error) {
	return []*models.UserBadgeView{}, nil
}

func (s *stubBadgeService) GetHighlightedBadges(ctx context.Context, userID string, limit *int) ([]*models.HighlightedBadgeView, error) {
	return []*models.HighlightedBadgeView{}, nil
}

func newTestRouter(t *testing.T, svc services.BadgeService, healthStatus string) http.Handler {
	t.Helper()
	am, err := middleware.NewAuthMiddleware(&middleware.AuthConfig{JWTSecret: testSecret}, zap.NewNop())
	require.NoError(t, err)

	return New(Options{
		BadgeService:   svc,
		AuthMiddleware: am,
		Logger:         zap.NewNop(),
		EnableMetrics:  true,
		Health: func(ctx context.Context) *services.ServiceHealth {
			return &services.ServiceHealth{Status: healthStatus, Timestamp: time.Now()}
		},
	})
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestBadgeRoutes(t *testing.T) {
	svc := &stubBadgeService{}
	h := newTestRouter(t, svc, "healthy")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/v1/badges/evaluate", http.StatusOK},
		{http.MethodGet, "/api/v1/badges", http.StatusOK},
		{http.MethodGet, "/api/v1/badges?limit=5", http.StatusOK},
		{http.MethodGet, "/api/v1/badges/highlights", http.StatusOK},
		{http.MethodGet, "/api/v1/badges/evaluate", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", bearer(t, "user-7"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.HeaderXRequestID))
		})
	}

	assert.Equal(t, "user-7", svc.evaluatedFor)
}

func TestBadgeRoutesRequireToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &stubBadgeService{}, "healthy").
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/badges", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	for status, want := range map[string]int{
		"healthy":   http.StatusOK,
		"degraded":  http.StatusOK,
		"unhealthy": http.StatusServiceUnavailable,
	} {
		t.Run(status, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(t, &stubBadgeService{}, status).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, want, rec.Code)
			assert.Contains(t, rec.Body.String(), status)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &stubBadgeService{}, "healthy").
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &stubBadgeService{}, "healthy").
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
