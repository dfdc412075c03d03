package api

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sociochat/engine/internal/config"
	"github.com/sociochat/engine/internal/engine"
	"github.com/sociochat/engine/internal/history"
	"github.com/sociochat/engine/internal/stats"
	"github.com/sociochat/engine/internal/testutil"
)

func newTestApp(t *testing.T) *App {
	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("RegisterMetric", mock.Anything).Return()
	mockStats.On("Incr", mock.Anything).Return()
	mockStats.On("Decr", mock.Anything).Return()

	logger := testutil.TestLogger(t)
	e := engine.NewEngine(logger, history.NopRecorder{}, mockStats)

	return NewApp(http.NewServeMux(), logger, e, &config.Config{
		ServerAddr:     "localhost:8000",
		SigningKey:     testSigningKey,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func TestErrorHandler_PanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t)
	app.log = log.New(&buf, "", 0)

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
	assert.Contains(t, buf.String(), "something went wrong")
}

func Test_authMiddleware(t *testing.T) {
	app := newTestApp(t)

	handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		user, ok := SessionUser(r.Context())
		assert.True(t, ok, "expected the session user in the request context")
		assert.Equal(t, "u1", user.Id)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: signTestToken(t, testSigningKey, jwt.MapClaims{
			"sub":      "u1",
			"username": "alice",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})})

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "no-store, no-cache, must-revalidate, private", rr.Header().Get("Cache-Control"))
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
