package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
	"github.com/jeeprep/jee-prep-api/pkg/auth"
	"github.com/jeeprep/jee-prep-api/pkg/auth/manager"
)

type MockTokenParser struct {
	mock.Mock
}

func (m *MockTokenParser) ParseToken(ctx context.Context, token string) (*auth.JWTCustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.JWTCustomClaims), args.Error(1)
}

func newAuthRouter(parser TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", NewAuthMiddleware(parser).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return r
}

// ============================================================================
// RequireAuth
// ============================================================================

func TestRequireAuth(t *testing.T) {
	parser := new(MockTokenParser)
	parser.On("ParseToken", "good").Return(&auth.JWTCustomClaims{UserID: 7, Email: "a@b.c"}, nil)
	parser.On("ParseToken", "old").Return(nil, apperrors.ErrExpiredToken)
	r := newAuthRouter(parser)

	tests := []struct {
		name       string
		setup      func(req *http.Request)
		wantStatus int
		wantBody   string
	}{
		{"bearer header", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, http.StatusOK, `"user_id":7`},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: manager.AccessTokenCookie, Value: "good"})
		}, http.StatusOK, `"user_id":7`},
		{"missing", func(req *http.Request) {}, http.StatusUnauthorized, "token_missing"},
		{"bad format", func(req *http.Request) { req.Header.Set("Authorization", "Token good") }, http.StatusUnauthorized, "token_format"},
		{"expired", func(req *http.Request) { req.Header.Set("Authorization", "Bearer old") }, http.StatusUnauthorized, "token_expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

// ============================================================================
// Params
// ============================================================================

func TestExtractParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/q/:id", ExtractUintParam("id", "questionID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.MustGet("questionID")})
	})
	r.GET("/t/:attemptId", ExtractAttemptParam("attemptId", "attemptID"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("attemptID"))
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/q/12", http.StatusOK},
		{"/q/abc", http.StatusBadRequest},
		{"/q/0", http.StatusBadRequest},
		{"/t/5b3c", http.StatusOK},
		{"/t/" + strings.Repeat("a", 65), http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.wantStatus, w.Code, tt.path)
	}
}

// ============================================================================
// UserRateLimiter
// ============================================================================

func TestUserRateLimiter_PerUserBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewUserRateLimiter(1, 2)
	fixed := time.Unix(1000, 0)
	limiter.now = func() time.Time { return fixed }

	r := gin.New()
	r.POST("/save", func(c *gin.Context) {
		var id uint = 1
		if c.Query("user") == "2" {
			id = 2
		}
		c.Set(ContextUserID, id)
	}, limiter.Limit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 4)
	for _, user := range []string{"1", "1", "1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save?user="+user, nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests, http.StatusNoContent}, codes)
}
