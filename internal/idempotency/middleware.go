package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const Header = "Idempotency-Key"

const maxBody = 1 << 20

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays the stored response for a repeated Idempotency-Key.
//
//   - no header: pass-through
//   - same key, same request: stored status and body are replayed
//   - same key, different request: 409
//   - same key while the first request is still running: 409
//
// Keys are scoped to the caller's credential. Server errors release the key so the
// client can retry.
func Middleware(store Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(Header)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		scope := digest([]byte(c.GetHeader("Authorization")))
		storeKey := scope + ":" + key
		hash := digest([]byte(c.Request.Method+":"+c.Request.URL.Path+":"), body)

		ctx := c.Request.Context()
		existing, err := store.Reserve(ctx, storeKey, hash)
		if err != nil {
			logger.Error().Err(err).Msg("idempotency: reserve")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency lookup error"})
			return
		}
		if existing != nil {
			switch {
			case existing.Hash != hash:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "idempotency key reused with a different request"})
			case !existing.Done:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			default:
				c.Header("Idempotent-Replayed", "true")
				c.Data(existing.Status, existing.ContentType, existing.Body)
				c.Abort()
			}
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, storeKey); err != nil {
				logger.Warn().Err(err).Msg("idempotency: release")
			}
			return
		}
		rec := Record{
			Hash:        hash,
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		}
		if err := store.Complete(ctx, storeKey, rec); err != nil {
			logger.Warn().Err(err).Msg("idempotency: complete")
		}
	}
}

func digest(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
