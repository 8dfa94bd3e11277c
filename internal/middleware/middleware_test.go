package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ventaspos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secreto = "test-secret-with-at-least-32-characters"

func init() { gin.SetMode(gin.TestMode) }

func firmar(t *testing.T, secret string, claims JWTClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func servir(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", JWTAuth(secreto), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"usuario": UsuarioID(c)})
	})

	vigente := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	casos := []struct {
		nombre string
		header string
		status int
	}{
		{"sin header", "", http.StatusUnauthorized},
		{"esquema incorrecto", "Basic abc", http.StatusUnauthorized},
		{"firma invalida", "Bearer " + firmar(t, "otro-secreto", JWTClaims{UserID: 1, RegisteredClaims: vigente}), http.StatusUnauthorized},
		{"expirado", "Bearer " + firmar(t, secreto, JWTClaims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}), http.StatusUnauthorized},
		{"sin user_id", "Bearer " + firmar(t, secreto, JWTClaims{RegisteredClaims: vigente}), http.StatusUnauthorized},
		{"valido", "Bearer " + firmar(t, secreto, JWTClaims{UserID: 7, RegisteredClaims: vigente}), http.StatusOK},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := servir(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"usuario":7}`, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := servir(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = servir(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	ahora := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2, time.Minute)
	l.now = func() time.Time { return ahora }

	ok, _ := l.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, _ = l.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, retry := l.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, 61, retry)

	ok, _ = l.Allow("2.2.2.2")
	assert.True(t, ok, "limits are per ip")

	ahora = ahora.Add(61 * time.Second)
	ok, _ = l.Allow("1.1.1.1")
	assert.True(t, ok, "window reset")
	assert.Len(t, l.entries, 1, "expired entries purged")
}

func TestRateLimiter_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(1, time.Minute).Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, servir(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	w := servir(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), Recovery())
	r.GET("/nf", func(c *gin.Context) { _ = c.Error(apierror.NotFound("venta", 3)) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pq: password authentication failed")) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := servir(r, httptest.NewRequest(http.MethodGet, "/nf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"not_found"`)

	w = servir(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = servir(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
