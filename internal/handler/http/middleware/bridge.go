package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"golang.org/x/crypto/bcrypt"
)

const APIKeyHeader = "X-API-Key"

// BridgeAPIKey authenticates the biometric bridge agent by its shared key.
// A configured bcrypt hash takes precedence over the plain key.
func BridgeAPIKey(cfg config.BridgeConfig) func(http.Handler) http.Handler {
	hash := []byte(cfg.APIKeyHash)
	plain := []byte(cfg.APIKey)

	valid := func(key string) bool {
		if key == "" {
			return false
		}
		if len(hash) > 0 {
			return bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil
		}
		if len(plain) == 0 {
			return false
		}
		return subtle.ConstantTimeCompare(plain, []byte(key)) == 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !valid(r.Header.Get(APIKeyHeader)) {
				response.HandleError(w, punch.ErrInvalidAPIKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
