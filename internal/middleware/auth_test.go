package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestAuthenticator() *Authenticator {
	a := NewAuthenticator("test-secret", 24*time.Hour, nil)
	a.now = func() time.Time { return issuedAt }
	return a
}

// whoami echoes the identity the middleware attached.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, _ := UserID(r.Context())
	services.SendSuccess(w, http.StatusOK, map[string]string{"userId": id, "role": string(Role(r.Context()))})
})

func request(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) services.Response {
	t.Helper()
	var resp services.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMiddleware_ValidToken(t *testing.T) {
	a := newTestAuthenticator()
	token, err := a.IssueToken("student-1", models.RoleStudent)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Middleware(whoami).ServeHTTP(rec, request(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "student-1", data["userId"])
	assert.Equal(t, "student", data["role"])
}

func TestMiddleware_Rejections(t *testing.T) {
	a := newTestAuthenticator()

	expired := newTestAuthenticator()
	expired.now = func() time.Time { return issuedAt.Add(-48 * time.Hour) }
	expiredToken, err := expired.IssueToken("student-1", models.RoleStudent)
	require.NoError(t, err)

	other := NewAuthenticator("another-secret", time.Hour, nil)
	other.now = a.now
	forged, err := other.IssueToken("student-1", models.RoleStudent)
	require.NoError(t, err)

	noRole, err := a.IssueToken("student-1", models.Role("admin"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "student-1", Role: models.RoleStudent}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"expired", "Bearer " + expiredToken},
		{"wrong secret", "Bearer " + forged},
		{"unknown role", "Bearer " + noRole},
		{"none algorithm", "Bearer " + unsigned},
		{"garbage", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			a.Middleware(whoami).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
		})
	}
}

func TestMiddleware_RevokedToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	a := newTestAuthenticator()
	a.redis = client

	token, err := a.IssueToken("student-1", models.RoleStudent)
	require.NoError(t, err)
	mock.ExpectExists(blacklistKey(token)).SetVal(1)

	rec := httptest.NewRecorder()
	a.Middleware(whoami).ServeHTTP(rec, request(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware_BlacklistUnavailable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	a := newTestAuthenticator()
	a.redis = client

	token, err := a.IssueToken("student-1", models.RoleStudent)
	require.NoError(t, err)
	mock.ExpectExists(blacklistKey(token)).SetErr(assert.AnError)

	rec := httptest.NewRecorder()
	a.Middleware(whoami).ServeHTTP(rec, request(token))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogout_BlacklistsForRemainingLifetime(t *testing.T) {
	client, mock := redismock.NewClientMock()
	a := newTestAuthenticator()
	a.redis = client

	token, err := a.IssueToken("teacher-1", models.RoleTeacher)
	require.NoError(t, err)

	// Logout happens two hours after issue.
	a.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	mock.ExpectExists(blacklistKey(token)).SetVal(0)
	mock.ExpectSet(blacklistKey(token), "revoked", 22*time.Hour).SetVal("OK")

	rec := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(a.Logout)).ServeHTTP(rec, request(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireRole(t *testing.T) {
	a := newTestAuthenticator()
	studentToken, err := a.IssueToken("student-1", models.RoleStudent)
	require.NoError(t, err)
	teacherToken, err := a.IssueToken("teacher-1", models.RoleTeacher)
	require.NoError(t, err)

	h := a.Middleware(RequireRole(models.RoleTeacher)(whoami))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(studentToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCESS_DENIED", decode(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(teacherToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(whoami).ServeHTTP(rec, request(""))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
