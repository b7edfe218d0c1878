package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the HTTP header carrying the client's idempotency key
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyPrefix = "idempotency:v1:"
	inProgressMarker  = "__in_progress__"

	redisOpTimeout = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// bodyCaptureWriter duplicates everything written to the response so the
// completed response can be persisted for replay
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays previously completed responses for unsafe requests that
// repeat an Idempotency-Key. Requests without the header pass through
// untouched; a key whose first request is still in flight gets a 409.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), redisOpTimeout)
		defer cancel()

		// Keys are scoped per owner; two owners reusing the same literal
		// key must never observe each other's responses.
		cacheKey := idempotencyPrefix + key
		if ownerID, ok := GetOwnerID(c); ok {
			cacheKey = idempotencyPrefix + ownerID + ":" + key
		}

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				abortWithConflict(c, "duplicate request currently processing")
				return
			}

			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logger.Warn("Failed to decode stored idempotent response", "key", key, "error", err)
				abortWithConflict(c, "duplicate request")
				return
			}

			for header, value := range stored.Headers {
				if strings.EqualFold(header, "Content-Length") {
					continue
				}
				c.Header(header, value)
			}
			c.String(stored.Status, stored.Body)
			c.Abort()
			return
		}

		if !errors.Is(err, redis.Nil) {
			logger.Error("Idempotency lookup failed", "key", key, "error", err)
			abortWithStorageFailure(c)
			return
		}

		acquired, err := reserveKey(ctx, cache, cacheKey, ttl)
		if err != nil {
			logger.Error("Idempotency reservation failed", "key", key, "error", err)
			abortWithStorageFailure(c)
			return
		}
		if !acquired {
			abortWithConflict(c, "duplicate request currently processing")
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			// Server-side failures are not replayed; release the reservation
			// so the client can retry with the same key.
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), redisOpTimeout)
			defer cleanupCancel()
			cache.Del(cleanupCtx, cacheKey)
			return
		}

		stored := storedResponse{
			Status:  status,
			Body:    writer.body.String(),
			Headers: map[string]string{},
		}
		for header, values := range writer.Header() {
			if len(values) > 0 {
				stored.Headers[header] = values[0]
			}
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			logger.Error("Failed to encode idempotent response", "key", key, "error", err)
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), redisOpTimeout)
			defer cleanupCancel()
			cache.Del(cleanupCtx, cacheKey)
			return
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer persistCancel()

		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("Failed to persist idempotent response", "key", key, "error", err)
			cache.Del(persistCtx, cacheKey)
		}
	}
}

// reserveKey claims the in-progress marker for a cache key. SetNX reports a
// lost race through its boolean, not the error: a request that slips in
// between the Get miss and the reservation must get the same 409 as one
// caught by the marker lookup.
func reserveKey(ctx context.Context, cache *redis.Client, cacheKey string, ttl time.Duration) (bool, error) {
	return cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
}

func abortWithConflict(c *gin.Context, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    "CONFLICT",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusConflict, response)
}

func abortWithStorageFailure(c *gin.Context) {
	response := gin.H{
		"error": gin.H{
			"code":    "STORAGE_FAILURE",
			"message": "Idempotency store is unavailable",
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, response)
}
