package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mathrush/engine/internal/identity"
	"github.com/mathrush/engine/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Identity headers set by the upstream gateway. The engine trusts them; it is
// never exposed directly to clients.
const (
	headerUserID      = "X-User-Id"
	headerUserRole    = "X-User-Role"
	headerSchoolID    = "X-School-Id"
	headerClassIDs    = "X-Class-Ids"
	headerDisplayName = "X-Display-Name"
	headerExternalID  = "X-External-Id"
)

// identityMiddleware resolves the caller from gateway headers and stores it in
// the request context. Requests without a user id are rejected.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		userID, err := strconv.ParseInt(r.Header.Get(headerUserID), 10, 64)
		if err != nil || userID <= 0 {
			log.Warn("request without a valid %s header", headerUserID)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"code":    "UNAUTHENTICATED",
					"message": "missing caller identity",
				},
			})
			return
		}

		caller := identity.Caller{
			UserID:      userID,
			Role:        identity.Role(r.Header.Get(headerUserRole)),
			DisplayName: r.Header.Get(headerDisplayName),
			ExternalID:  r.Header.Get(headerExternalID),
		}
		if caller.Role == "" {
			caller.Role = identity.RoleStudent
		}
		if schoolID, err := strconv.ParseInt(r.Header.Get(headerSchoolID), 10, 64); err == nil {
			caller.SchoolID = schoolID
		}
		for _, part := range strings.Split(r.Header.Get(headerClassIDs), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if classID, err := strconv.ParseInt(part, 10, 64); err == nil {
				caller.ClassIDs = append(caller.ClassIDs, classID)
			}
		}

		ctx := identity.NewContext(r.Context(), caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateRequestID creates a random request ID.
func generateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// loggingMiddleware logs HTTP requests with timing, status codes, and request IDs.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		log := logger.Default().WithFields(map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		if r.RemoteAddr != "" {
			log = log.WithField("remote_addr", r.RemoteAddr)
		}

		ctx := logger.NewContext(r.Context(), log)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		log.Debug("request started")

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log = log.WithFields(map[string]any{
			"status":      wrapped.status,
			"size":        wrapped.size,
			"duration_ms": duration.Milliseconds(),
		})

		if wrapped.status >= 500 {
			log.Error("request completed with server error")
		} else if wrapped.status >= 400 {
			log.Warn("request completed with client error")
		} else {
			log.Info("request completed")
		}
	})
}

// recoveryMiddleware recovers from panics and logs them.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log := logger.FromContext(r.Context())
				log.Error("panic recovered: %v", rec)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
