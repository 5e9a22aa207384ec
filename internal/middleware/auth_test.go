package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/edugrid/gradecore-backend/internal/model"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, role model.Role) string {
	t.Helper()
	claims := &Claims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func roleRouter(roles ...model.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", RequireAuth(testSecret), RequireRole(roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireRoleDenialCodes(t *testing.T) {
	tests := []struct {
		name    string
		allowed []model.Role
		caller  model.Role
		status  int
		code    string
	}{
		{"student route rejects lecturer", []model.Role{model.RoleStudent}, model.RoleLecturer, http.StatusForbidden, "STUDENT_ACCESS_ONLY"},
		{"lecturer route rejects student", []model.Role{model.RoleLecturer, model.RoleAdmin}, model.RoleStudent, http.StatusForbidden, "LECTURER_ACCESS_ONLY"},
		{"student route admits student", []model.Role{model.RoleStudent}, model.RoleStudent, http.StatusNoContent, ""},
		{"lecturer route admits admin", []model.Role{model.RoleLecturer, model.RoleAdmin}, model.RoleAdmin, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := roleRouter(tt.allowed...)
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tt.caller))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.code != "" && !strings.Contains(rec.Body.String(), tt.code) {
				t.Errorf("body = %s, want code %q", rec.Body.String(), tt.code)
			}
		})
	}
}
