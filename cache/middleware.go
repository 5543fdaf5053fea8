package cache

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"studynotes/metrics"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves a whole GET response from the cache under key, and
// stores successful responses of contentType on a miss.
func Middleware(c *Cache, key, contentType string, maxAge time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil || ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		if cached, found := c.Read(key, maxAge); found {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, contentType, []byte(cached))
			ctx.Abort()
			return
		}

		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		ctx.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: ctx.Writer,
			body:           bytes.NewBuffer(nil),
		}
		ctx.Writer = writer

		ctx.Next()

		if writer.Status() == http.StatusOK &&
			strings.HasPrefix(writer.Header().Get("Content-Type"), strings.Split(contentType, ";")[0]) {
			if err := c.Write(key, writer.body.String()); err != nil {
				ctx.Error(err)
			}
		}
	}
}

// Fragment returns the cached value of key, or builds, stores and returns it.
func (c *Cache) Fragment(key string, maxAge time.Duration, build func() (string, error)) (string, error) {
	if cached, found := c.Read(key, maxAge); found {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	content, err := build()
	if err != nil {
		return "", err
	}
	if err := c.Write(key, content); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return content, nil
}
