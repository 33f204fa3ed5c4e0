package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbridge/internal/adapters/auth"
	"bloodbridge/internal/delivery/http/helpers"
)

const testSecret = "matching-secret"

func mintToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := auth.NewJWTIssuer(secret).Issue("coordinator-7", "ops@bloodbridge.example.org", []string{"coordinator"}, ttl)
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := RequireAuth(auth.NewJWTVerifier(testSecret), logger)

	valid := mintToken(t, testSecret, time.Hour)
	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantSubject string
	}{
		{name: "valid bearer token", header: "Bearer " + valid, wantStatus: http.StatusOK, wantSubject: "coordinator-7"},
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic Y29vcmQ6cHc=", wantStatus: http.StatusUnauthorized},
		{name: "bearer without token", header: "Bearer   ", wantStatus: http.StatusUnauthorized},
		{name: "signed with another secret", header: "Bearer " + mintToken(t, "other-secret", time.Hour), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + mintToken(t, testSecret, -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubject string
			reached := false
			h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				gotSubject, _ = SubjectFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/requests/3f0c7c9e-8a39-4d59-9d6f-3b7a3f1f5d10/matches", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, reached)
				assert.Equal(t, tt.wantSubject, gotSubject)
				return
			}
			assert.False(t, reached, "handler must not run without a valid token")
			var env helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
			require.NotNil(t, env.Error)
			assert.Equal(t, helpers.ErrCodeUnauthorized, env.Error.Code)
		})
	}
}

func TestSubjectFromContext(t *testing.T) {
	_, ok := SubjectFromContext(context.Background())
	assert.False(t, ok)

	got, ok := SubjectFromContext(SetSubject(context.Background(), "donor-1"))
	assert.True(t, ok)
	assert.Equal(t, "donor-1", got)
}
