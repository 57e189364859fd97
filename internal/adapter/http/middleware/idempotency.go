package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"traiteur_devis/internal/infrastructure/cache"
	"traiteur_devis/pkg"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
	maxKeyLength         = 128
	storeTimeout         = 3 * time.Second
)

var (
	errInFlight   = pkg.NewDomainErrorSimple("REQUEST_IN_PROGRESS", "A request with this Idempotency-Key is still being processed", http.StatusConflict)
	errInvalidKey = pkg.NewDomainErrorSimple("INVALID_IDEMPOTENCY_KEY", "Idempotency-Key is too long", http.StatusBadRequest)
)

// IdempotencyStore is implemented by cache.IdempotencyStore.
type IdempotencyStore interface {
	Key(scope, key string) string
	Reserve(ctx context.Context, key string) (bool, error)
	Load(ctx context.Context, key string) (cache.Record, bool, error)
	Save(ctx context.Context, key string, rec cache.Record) error
	Release(ctx context.Context, key string) error
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key. Requests without the header pass through. Store failures let
// the request through.
func Idempotency(store IdempotencyStore, scope string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if raw == "" {
			c.Next()
			return
		}
		if len(raw) > maxKeyLength {
			c.AbortWithStatusJSON(errInvalidKey.HTTPStatus, errInvalidKey.ToHTTPError())
			return
		}

		ctx := c.Request.Context()
		key := store.Key(scope, raw)
		entry := log.WithFields(logrus.Fields{"scope": scope, "idempotency_key": raw})

		first, err := store.Reserve(ctx, key)
		if err != nil {
			entry.WithError(err).Warn("[http][idempotency] store unavailable")
			c.Next()
			return
		}
		if !first {
			rec, ok, err := store.Load(ctx, key)
			switch {
			case errors.Is(err, cache.ErrInFlight):
				c.AbortWithStatusJSON(errInFlight.HTTPStatus, errInFlight.ToHTTPError())
			case err != nil:
				entry.WithError(err).Warn("[http][idempotency] load failed")
				c.Next()
			case !ok:
				c.AbortWithStatusJSON(errInFlight.HTTPStatus, errInFlight.ToHTTPError())
			default:
				entry.Info("[http][idempotency] replaying stored response")
				c.Header(HeaderReplayed, "true")
				c.Data(rec.Status, rec.ContentType, rec.Body)
				c.Abort()
			}
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// The client may be gone by now; the outcome still has to be recorded.
		doneCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		defer cancel()

		// Server errors are not final: the client may retry with the same key.
		if w.Status() >= http.StatusInternalServerError {
			if err := store.Release(doneCtx, key); err != nil {
				entry.WithError(err).Warn("[http][idempotency] release failed")
			}
			return
		}
		rec := cache.Record{Status: w.Status(), ContentType: w.Header().Get("Content-Type"), Body: w.body.Bytes()}
		if err := store.Save(doneCtx, key, rec); err != nil {
			entry.WithError(err).Warn("[http][idempotency] save failed")
		}
	}
}
