package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	redisrepo "github.com/finovo/bankcore/internal/adapter/repository/redis"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/logger"
	"github.com/finovo/bankcore/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
	defaultIdempotencyTTL   = 24 * time.Hour
	maxFingerprintBody      = 1 << 20
)

// storedResponse is what gets recorded for a completed request.
type storedResponse struct {
	Fingerprint string `json:"fingerprint,omitempty"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays responses for repeated requests using Redis.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, log zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: log}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		storeKey := scopedKey(r, key)
		log := logger.FromContext(r.Context(), m.logger)

		fp, err := fingerprintBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		exists, cached, err := m.store.CheckAndSet(r.Context(), storeKey, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Str("idempotency_key", key).Msg("idempotency check failed")
			writeError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			if cached == nil || redisrepo.IsProcessing(cached) {
				writeError(w, http.StatusConflict, "a request with this idempotency key is still in progress")
				return
			}
			var prev storedResponse
			if err := json.Unmarshal(cached, &prev); err != nil {
				log.Error().Err(err).Str("idempotency_key", key).Msg("unreadable stored response")
				writeError(w, http.StatusInternalServerError, "idempotency check failed")
				return
			}
			if prev.Fingerprint != "" && prev.Fingerprint != fp {
				writeError(w, http.StatusConflict, "idempotency key was used with a different request")
				return
			}
			if prev.ContentType != "" {
				w.Header().Set("Content-Type", prev.ContentType)
			}
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(prev.Status)
			_, _ = w.Write(prev.Body)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		// The client may hang up before the handler returns; the key must
		// still be recorded or released so a retry is not locked out.
		storeCtx := context.WithoutCancel(r.Context())
		recorded := false
		defer func() {
			if recorded {
				return
			}
			if err := m.store.Delete(storeCtx, storeKey); err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}()

		next.ServeHTTP(recorder, r)

		// Only successes are replayed; anything else frees the key for a retry.
		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			return
		}

		payload, err := json.Marshal(storedResponse{
			Fingerprint: fp,
			Status:      recorder.statusCode,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err == nil {
			err = m.store.Update(storeCtx, storeKey, payload, m.ttl)
		}
		if err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to record idempotent response")
			return
		}
		recorded = true
	})
}

// fingerprintBody hashes the request body and puts it back for the handler.
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBody))
	if err != nil {
		return "", err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// scopedKey keeps keys from different users and endpoints apart.
func scopedKey(r *http.Request, key string) string {
	owner := "anonymous"
	if u, ok := domain.UserFromContext(r.Context()); ok {
		owner = u.ID
	}
	return owner + ":" + r.Method + ":" + r.URL.Path + ":" + key
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush passes through to the client so streamed replies are not held back.
func (r *responseRecorder) Flush() {
	_ = http.NewResponseController(r.ResponseWriter).Flush()
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
