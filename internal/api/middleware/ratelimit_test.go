package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petshop-plataforma/sales-service/internal/config"
)

func TestRateLimiter_Limit(t *testing.T) {
	cfg := &config.RateConfig{
		MaxAttempts: 3,
		WindowSize:  time.Minute,
	}

	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// httptest requests carry this RemoteAddr
	key := "ratelimit:192.0.2.1"

	newLimiter := func(client *redis.Client) *RateLimiter {
		rl := NewRateLimiter(client, cfg)
		rl.now = func() time.Time { return fixedNow }

		return rl
	}

	windowStart := strconv.FormatInt(fixedNow.Unix()-int64(cfg.WindowSize.Seconds()), 10)

	expectWindow := func(mock redismock.ClientMock, count int64) {
		now := fixedNow.Unix()

		mock.ExpectZRemRangeByScore(key, "0", windowStart).SetVal(0)
		mock.ExpectZAdd(key, redis.Z{Score: float64(now), Member: now}).SetVal(1)
		mock.ExpectZCard(key).SetVal(count)
		mock.ExpectExpire(key, cfg.WindowSize).SetVal(true)
	}

	t.Run("allows requests under the limit", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		rl := newLimiter(client)
		expectWindow(mock, 2)

		nextCalled := false
		handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/carrinho/adicionar", nil)
		rec := httptest.NewRecorder()

		// Act
		handler(rec, req)

		// Assert
		assert.True(t, nextCalled)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocks requests over the limit", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		rl := newLimiter(client)
		expectWindow(mock, cfg.MaxAttempts+1)

		nextCalled := false
		handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
		})

		req := httptest.NewRequest(http.MethodPost, "/carrinho/adicionar", nil)
		rec := httptest.NewRecorder()

		// Act
		handler(rec, req)

		// Assert
		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "Too many requests")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count exactly at the limit is still allowed", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		rl := newLimiter(client)
		expectWindow(mock, cfg.MaxAttempts)

		handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/carrinho/adicionar", nil)
		rec := httptest.NewRecorder()

		// Act
		handler(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails open when redis is unavailable", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		rl := newLimiter(client)
		mock.ExpectZRemRangeByScore(key, "0", windowStart).SetErr(errors.New("connection refused"))

		nextCalled := false
		handler := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/carrinho/adicionar", nil)
		rec := httptest.NewRecorder()

		// Act
		handler(rec, req)

		// Assert
		assert.True(t, nextCalled)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestClientKey(t *testing.T) {
	t.Run("strips the port from the remote address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:54321"

		assert.Equal(t, "ratelimit:10.1.2.3", clientKey(req))
	})

	t.Run("uses the raw address when there is no port", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3"

		assert.Equal(t, "ratelimit:10.1.2.3", clientKey(req))
	})
}
