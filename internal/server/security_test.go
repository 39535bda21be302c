package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	adminToken := "secret-key"
	middleware := AuthMiddleware(adminToken, nil, NewSuspiciousActivityDetector())

	tests := []struct {
		name           string
		providedKey    string
		path           string
		expectedStatus int
	}{
		{
			name:           "Admin Path With Valid Token",
			providedKey:    adminToken,
			path:           "/v1/admin/spawn",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Admin Path With Invalid Token",
			providedKey:    "wrong-key",
			path:           "/v1/admin/spawn",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Admin Path With Missing Token",
			providedKey:    "",
			path:           "/v1/admin/cooldown",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Store Path Is Public",
			providedKey:    "",
			path:           "/v1/store/events",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Status Path Is Public",
			providedKey:    "",
			path:           "/v1/status",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Healthz Is Public",
			providedKey:    "",
			path:           "/healthz",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.providedKey != "" {
				req.Header.Set(HeaderAPIKey, tt.providedKey)
			}
			rec := httptest.NewRecorder()

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}
