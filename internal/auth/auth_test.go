package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "classattend-test"
)

func TestIssueParse(t *testing.T) {
	valid, err := Issue("t1", RoleTeacher, testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	expired, err := Issue("t1", RoleTeacher, testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := Issue("t1", RoleTeacher, "someone-else", testKey, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		key     string
		wantErr bool
	}{
		{name: "valid", token: valid.AccessToken, key: testKey},
		{name: "wrong key", token: valid.AccessToken, key: "nope", wantErr: true},
		{name: "expired", token: expired.AccessToken, key: testKey, wantErr: true},
		{name: "issuer mismatch", token: otherIssuer.AccessToken, key: testKey, wantErr: true},
		{name: "garbage", token: "a.b.c", key: testKey, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := Parse(tt.token, tt.key, testIssuer)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t1", claims.Subject)
			assert.Equal(t, RoleTeacher, claims.Role)
		})
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	_, err := Issue("x", "admin", testIssuer, testKey, time.Minute)
	assert.ErrorIs(t, err, errUnknownRole)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/teachers-only", Authenticate(testKey, testIssuer), RequireRole(RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	teacher, err := Issue("t1", RoleTeacher, testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	student, err := Issue("s1", RoleStudent, testIssuer, testKey, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "no header", wantCode: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "student", header: "Bearer " + student.AccessToken, wantCode: http.StatusForbidden},
		{name: "teacher", header: "bearer " + teacher.AccessToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/teachers-only", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestCanViewStudent(t *testing.T) {
	teacher := Claims{Role: RoleTeacher}
	student := Claims{Role: RoleStudent}
	student.Subject = "s1"

	assert.True(t, teacher.CanViewStudent("s2"))
	assert.True(t, student.CanViewStudent("s1"))
	assert.False(t, student.CanViewStudent("s2"))
	assert.False(t, Claims{Role: "guest"}.CanViewStudent("s1"))
}
