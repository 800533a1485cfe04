package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, req *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestBridgeAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-key"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  config.BridgeConfig
		key  string
		want int
	}{
		{"plain key matches", config.BridgeConfig{APIKey: "plain-key"}, "plain-key", http.StatusNoContent},
		{"plain key mismatch", config.BridgeConfig{APIKey: "plain-key"}, "other", http.StatusUnauthorized},
		{"missing header", config.BridgeConfig{APIKey: "plain-key"}, "", http.StatusUnauthorized},
		{"hash matches", config.BridgeConfig{APIKeyHash: string(hash)}, "hashed-key", http.StatusNoContent},
		{"hash wins over plain", config.BridgeConfig{APIKey: "plain-key", APIKeyHash: string(hash)}, "plain-key", http.StatusUnauthorized},
		{"nothing configured", config.BridgeConfig{}, "anything", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/biometric/logs", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			assert.Equal(t, tt.want, serve(BridgeAPIKey(tt.cfg)(okHandler), req))
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(0.001, 2)(okHandler)

	from := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/biometric/logs", nil)
		req.RemoteAddr = addr
		return req
	}

	assert.Equal(t, http.StatusNoContent, serve(h, from("10.0.0.1:5000")))
	assert.Equal(t, http.StatusNoContent, serve(h, from("10.0.0.1:5001")))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, from("10.0.0.1:5002")), "ports share the address budget")
	assert.Equal(t, http.StatusNoContent, serve(h, from("10.0.0.2:5000")))
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(user.PermissionRegularizationApprove)(okHandler)

	withRole := func(role user.Role) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/regularizations/1/approve", nil)
		return req.WithContext(WithPrincipal(req.Context(), user.Principal{UserID: "u1", CompanyID: "c1", Role: role}))
	}

	assert.Equal(t, http.StatusNoContent, serve(h, withRole(user.RoleManager)))
	assert.Equal(t, http.StatusNoContent, serve(h, withRole(user.RoleOwner)))
	assert.Equal(t, http.StatusForbidden, serve(h, withRole(user.RoleEmployee)))
	assert.Equal(t, http.StatusForbidden, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)), "no principal")
}

func TestRequireEmployee(t *testing.T) {
	h := RequireEmployee(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/attendance/my", nil)
	owner := req.WithContext(WithPrincipal(req.Context(), user.Principal{UserID: "u1", CompanyID: "c1", Role: user.RoleOwner}))
	assert.Equal(t, http.StatusForbidden, serve(h, owner))

	staff := req.WithContext(WithPrincipal(req.Context(), user.Principal{UserID: "u2", CompanyID: "c1", EmployeeID: "emp-1", Role: user.RoleEmployee}))
	assert.Equal(t, http.StatusNoContent, serve(h, staff))
}
